package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/bubble-duel/internal/client"
	"github.com/palemoky/bubble-duel/internal/game"
	"github.com/palemoky/bubble-duel/internal/logger"
	"github.com/palemoky/bubble-duel/internal/ui"
)

func main() {
	serverAddr := flag.String("server", "localhost:3000", "服务器地址")
	roomID := flag.String("room", "", "房间号")
	player := flag.Int("player", 0, "座位号 (1 或 2)")
	flag.Parse()

	if *roomID == "" || !game.ValidSlot(*player) {
		fmt.Fprintln(os.Stderr, "用法: client -room <房间号> -player <1|2> [-server 地址]")
		fmt.Fprintln(os.Stderr, "房间号通过 GET /create-room 获取")
		os.Exit(1)
	}

	// TUI 占用标准输出，日志写入文件
	if err := logger.Init(); err != nil {
		log.Printf("初始化日志失败: %v", err)
	}
	defer logger.Close()

	serverURL := fmt.Sprintf("ws://%s/ws", *serverAddr)

	c := client.NewClient(serverURL)
	if err := c.Connect(); err != nil {
		fmt.Fprintf(os.Stderr, "连接服务器失败: %v\n", err)
		os.Exit(1)
	}

	model := ui.NewModel(c, *roomID, game.Slot(*player))

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("启动客户端时出错: %v", err)
	}
}
