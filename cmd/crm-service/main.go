package main

import (
	"fmt"
	"os"

	"github.com/nurpe/fieldserv-crm/internal/auth"
	"github.com/nurpe/fieldserv-crm/internal/config"
	"github.com/nurpe/fieldserv-crm/internal/db"
	"github.com/nurpe/fieldserv-crm/internal/excel"
	httphandler "github.com/nurpe/fieldserv-crm/internal/http"
	"github.com/nurpe/fieldserv-crm/internal/http/middleware"
	"github.com/nurpe/fieldserv-crm/internal/logger"
	"github.com/nurpe/fieldserv-crm/internal/pdf"
	"github.com/nurpe/fieldserv-crm/internal/repository"
	"github.com/nurpe/fieldserv-crm/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	bidRepo := repository.NewBidRepository(database)
	bidTypeRepo := repository.NewBidTypeRepository(database)
	equipmentRepo := repository.NewEquipmentRepository(database)
	roleRepo := repository.NewRoleRepository(database)
	directoryRepo := repository.NewDirectoryRepository(database)

	intakeParser := excel.NewParser()
	registerGenerator := excel.NewRegisterGenerator()
	workOrderGenerator := pdf.NewGenerator()

	bidService := service.NewBidService(bidRepo, bidTypeRepo, directoryRepo, roleRepo, equipmentRepo, workOrderGenerator)
	bidTypeService := service.NewBidTypeService(bidTypeRepo, bidRepo, roleRepo)
	equipmentService := service.NewEquipmentService(equipmentRepo, bidRepo, roleRepo, intakeParser, registerGenerator)
	roleService := service.NewRoleService(roleRepo)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(bidService, bidTypeService, equipmentService, roleService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting crm service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
