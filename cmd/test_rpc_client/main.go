package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	grpc_adapter "github.com/JoeShih716/go-mem-bank/internal/app/core/adapter/in/grpc"
	grpc_pool "github.com/JoeShih716/go-mem-bank/pkg/grpc"
	"github.com/JoeShih716/go-mem-bank/pkg/logger"
)

func main() {
	target := flag.String("target", "localhost:50051", "gRPC server address")
	total := flag.Int("n", 100000, "number of transfers")
	concurrency := flag.Int("c", 1000, "concurrent requests")
	flag.Parse()

	log := logger.New("test-rpc-client", slog.LevelInfo)
	if err := run(log, *target, *total, *concurrency); err != nil {
		log.Error("load test failed", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, target string, total, concurrency int) error {
	pool := grpc_pool.NewPool()
	defer pool.Close()

	conn, err := pool.GetConnection(target)
	if err != nil {
		return err
	}
	client := grpc_adapter.NewClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	// 每次執行建立兩個新帳戶，email 加上亂數避免重複
	suffix := uuid.NewString()[:8]
	initial := decimal.NewFromInt(1_000_000)
	a, err := client.CreateAccount(ctx, "load-a", "load-a-"+suffix+"@gmail.com", initial)
	if err != nil {
		return fmt.Errorf("create account a: %w", err)
	}
	b, err := client.CreateAccount(ctx, "load-b", "load-b-"+suffix+"@gmail.com", initial)
	if err != nil {
		return fmt.Errorf("create account b: %w", err)
	}

	var failed atomic.Int64
	amount := decimal.NewFromInt(1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	startTime := time.Now()
	for i := 0; i < total; i++ {
		from, to := a.ID, b.ID
		if i%2 == 1 {
			from, to = to, from
		}
		g.Go(func() error {
			if _, err := client.Transfer(gctx, from, to, amount); err != nil {
				if failed.Add(1)%10000 == 1 {
					log.Warn("transfer failed", "index", i, "error", err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(startTime)

	balanceA, err := client.GetBalance(ctx, a.ID)
	if err != nil {
		return err
	}
	balanceB, err := client.GetBalance(ctx, b.ID)
	if err != nil {
		return err
	}
	sum := balanceA.Balance.Add(balanceB.Balance)
	if !sum.Equal(initial.Mul(decimal.NewFromInt(2))) {
		return fmt.Errorf("conservation violated: %s + %s = %s", balanceA.Balance, balanceB.Balance, sum)
	}

	fmt.Printf("Completed %d transfers (%d failed) in %v\n", total, failed.Load(), elapsed)
	fmt.Printf("TPS: %.2f\n", float64(total)/elapsed.Seconds())
	fmt.Printf("Balances: a=%s b=%s (sum %s)\n", balanceA.Balance, balanceB.Balance, sum)
	return nil
}
