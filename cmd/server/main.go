package main

import (
	"log"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/config"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/database"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/jobs"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/reports"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/server"
)

func main() {
	cfg := config.Load()
	db := database.Init(cfg)
	rdb := database.NewRedis(cfg)

	scheduler, err := jobs.Start(jobs.Reconcile(reports.NewService(db), cfg.ReconcileCron))
	if err != nil {
		log.Fatal(err)
	}
	defer scheduler.Stop()

	app := server.New(cfg, db, rdb)

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
