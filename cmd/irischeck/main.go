package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	appcfg "github.com/park285/Cheese-Connect4-bot/internal/config"
	"github.com/park285/Cheese-Connect4-bot/internal/irisfast"
	"github.com/park285/Cheese-Connect4-bot/internal/store"
)

// irischeck probes the Iris bridge and the configured Redis, then prints
// inbound chat for a short window.
func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.IrisBaseURL == "" {
		log.Fatal("IRIS_BASE_URL is required")
	}

	client := irisfast.NewClient(cfg.IrisBaseURL,
		irisfast.WithHeaderProvider(cfg.IrisHeaders),
		irisfast.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ic, err := client.GetConfig(ctx)
	if err != nil {
		log.Printf("/config error: %v", err)
	} else {
		log.Printf("/config ok: bot=%s port=%d polling=%d rate=%d endpoint=%s",
			ic.BotName, ic.BotHTTPPort, ic.DBPollingRate, ic.MessageSendRate, ic.WebEndpoint)
	}

	if cfg.RedisURL != "" {
		checkRedis(ctx, cfg.RedisURL)
	}

	if cfg.IrisWSURL == "" {
		log.Println("IRIS_WS_URL not set; skipping WS check")
		return
	}

	ws := irisfast.NewWebSocket(cfg.IrisWSURL, 0)
	ws.SetHeaderProvider(cfg.IrisHeaders)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		log.Printf("WS state: %s", state)
	})
	ws.OnMessage(func(msg *irisfast.Message) {
		fmt.Printf("WS msg room=%s from=%s text=%q\n", msg.Room, msg.SenderName(), msg.Msg)
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		log.Printf("WS connect error: %v", err)
		return
	}

	<-time.After(10 * time.Second)
	_ = ws.Close(context.Background())
}

func checkRedis(ctx context.Context, url string) {
	opts, err := store.ParseRedisURL(url)
	if err != nil {
		log.Printf("redis url error: %v", err)
		return
	}
	rdb := redis.NewClient(opts)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis ping error: %v", err)
		return
	}
	log.Printf("redis ok: %s", opts.Addr)
}
