package main

import (
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"google.golang.org/grpc"

	"tradepost.org/internal/obs"
	"tradepost.org/internal/payment"
)

func main() {
	defer obs.Sync()

	addr := os.Getenv("TRADEPOST_PAYMENT_ADDR")
	if addr == "" {
		addr = ":9631"
	}

	var opts []payment.ApproverOption
	if raw := os.Getenv("TRADEPOST_PAYMENT_APPROVAL_RATE"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil || rate < 0 || rate > 1 {
			log.Fatalf("invalid TRADEPOST_PAYMENT_APPROVAL_RATE %q", raw)
		}
		opts = append(opts, payment.WithApprovalRate(rate))
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("listen on %s: %v", addr, err)
	}

	srv := grpc.NewServer()
	payment.RegisterAuthorizationServer(srv, payment.NewApprover(opts...))

	log.Printf("Starting paymentd on %s", addr)

	go func() {
		if err := srv.Serve(lis); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	srv.GracefulStop()
	log.Println("Stopped")
}
