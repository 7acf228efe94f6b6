package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jatinjeswaniii/E-shoppingCart/internal/config"
	"github.com/Jatinjeswaniii/E-shoppingCart/internal/httpx"
	kafkax "github.com/Jatinjeswaniii/E-shoppingCart/internal/kafka"
	"github.com/Jatinjeswaniii/E-shoppingCart/internal/metrics"
	"github.com/Jatinjeswaniii/E-shoppingCart/internal/postgres"
	"github.com/Jatinjeswaniii/E-shoppingCart/internal/redisx"
	"github.com/Jatinjeswaniii/E-shoppingCart/internal/shop"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicOrderPlaced, 1024)
	prod.Start(ctx)

	// Stores & placement service
	products := &shop.ProductRepo{DB: db}
	orders := &shop.OrderRepo{DB: db}
	users := &shop.UserRepo{DB: db}
	placement := &shop.PlacementService{
		Provider: &shop.PoolProvider{Pool: db},
		Orders:   orders,
		Products: products,
	}

	m := metrics.NewShopMetrics(cfg.ServiceName)

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Placer:   placement,
		Orders:   orders,
		Producer: prod,
		Redis:    rdb,
		Metrics:  m,
		Service:  cfg.ServiceName,
	}
	oh.Register(router)
	ph := &httpx.ProductsHandler{Products: products, Redis: rdb}
	ph.Register(router)
	uh := &httpx.UsersHandler{Users: users}
	uh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // tutup inbox -> flush & close writer
	prod.WaitClosed() // drain
}
