// posewatch prints the avatar pose from a running mimic dashboard
// Usage: go run ./cmd/posewatch -addr localhost:8181
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type status struct {
	Tick           uint64   `json:"tick"`
	Mode           string   `json:"mode"`
	SubjectPresent bool     `json:"subject_present"`
	Objects        []string `json:"objects"`
	Pose           struct {
		LeftArm  float64 `json:"left_arm"`
		RightArm float64 `json:"right_arm"`
		LeftLeg  float64 `json:"left_leg"`
		RightLeg float64 `json:"right_leg"`
		HeadTilt float64 `json:"head_tilt"`
		BodyLean float64 `json:"body_lean"`
	} `json:"pose"`
}

func main() {
	addr := flag.String("addr", "localhost:8181", "Dashboard host:port")
	flag.Parse()

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws/status"}
	fmt.Printf("🔌 Connecting to %s\n", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		fmt.Printf("❌ Connect failed: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				fmt.Printf("\n🔌 Disconnected: %v\n", err)
				return
			}
			var s status
			if err := json.Unmarshal(data, &s); err != nil {
				continue
			}
			fmt.Print("\r" + formatStatus(s) + "\033[K")
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		fmt.Println()
	}
}

func formatStatus(s status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%-6d %-14s ", s.Tick, s.Mode)
	if s.SubjectPresent {
		b.WriteString("🧍 ")
	} else {
		b.WriteString("·  ")
	}
	p := s.Pose
	fmt.Fprintf(&b, "arms L%+4.0f R%+4.0f  legs L%+4.0f R%+4.0f  head %+4.0f  body %+4.0f",
		p.LeftArm, p.RightArm, p.LeftLeg, p.RightLeg, p.HeadTilt, p.BodyLean)
	if len(s.Objects) > 0 {
		b.WriteString("  sees: " + strings.Join(s.Objects, ", "))
	}
	return b.String()
}
