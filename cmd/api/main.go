package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"tradepost.org/internal/cart"
	"tradepost.org/internal/catalog"
	"tradepost.org/internal/checkout"
	"tradepost.org/internal/feedback"
	"tradepost.org/internal/httpapi"
	"tradepost.org/internal/inventory"
	"tradepost.org/internal/obs"
	"tradepost.org/internal/payment"
	"tradepost.org/internal/session"
	"tradepost.org/internal/store/memory"
	"tradepost.org/internal/store/pg"
	"tradepost.org/internal/stream"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

// marketStore is the full persistence surface; both the Postgres and the
// in-memory store satisfy it.
type marketStore interface {
	session.Store
	session.AccountStore
	catalog.Store
	inventory.Store
	cart.Store
	checkout.Store
	feedback.Store
}

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)
	defer obs.Sync()

	var (
		backing marketStore
		db      *sql.DB
	)
	if dsn := os.Getenv("TRADEPOST_PG_DSN"); dsn != "" {
		store, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer store.Close()
		backing = store
		db = store.DB()
	} else {
		// Demo mode: state lives and dies with the process.
		log.Print("TRADEPOST_PG_DSN not set, using in-memory store")
		backing = memory.NewStore()
	}

	paymentAddr := os.Getenv("TRADEPOST_PAYMENT_ADDR")
	if paymentAddr == "" {
		paymentAddr = "localhost:9631"
	}
	authorizer, err := payment.Dial(paymentAddr)
	if err != nil {
		log.Fatalf("dial payment service at %s: %v", paymentAddr, err)
	}
	defer authorizer.Close()

	ledger := inventory.NewLedger(backing)
	catalogSvc := catalog.NewService(backing)
	carts := cart.NewCoordinator(backing, ledger, backing)
	events := stream.New()
	orders := checkout.NewOrchestrator(backing, carts, authorizer, checkout.WithStream(events))
	ratings := feedback.NewLedger(backing)

	sessionOpts := []session.Option{session.WithJanitor(carts)}
	if raw := os.Getenv("TRADEPOST_SESSION_TIMEOUT_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			log.Fatalf("invalid TRADEPOST_SESSION_TIMEOUT_SECONDS %q", raw)
		}
		sessionOpts = append(sessionOpts, session.WithTimeout(time.Duration(secs)*time.Second))
	}
	sessions := session.NewService(backing, backing, sessionOpts...)

	api := httpapi.New(httpapi.Config{
		Sessions:  sessions,
		Catalog:   catalogSvc,
		Inventory: ledger,
		Carts:     carts,
		Checkout:  orders,
		Feedback:  ratings,
		Events:    events,
		Ready:     httpapi.ReadyProbe{DB: db},
		Version:   version,
	})

	addr := os.Getenv("TRADEPOST_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting tradepost-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	sessions.Drain()
	log.Println("Stopped")
}
