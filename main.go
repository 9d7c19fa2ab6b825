package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/agriintel/agri-intel/config"
	"github.com/agriintel/agri-intel/database"
	"github.com/agriintel/agri-intel/logger"
	"github.com/agriintel/agri-intel/web"
	"github.com/agriintel/agri-intel/web/entity"
	"github.com/agriintel/agri-intel/web/service"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func initLogger() {
	level, err := logger.ParseLevel(config.GetLogLevel())
	if err != nil {
		log.Fatal(err)
	}
	logger.InitLogger(level)
}

func initDB() error {
	return database.InitDB(config.GetDatabaseConfig())
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	initLogger()
	defer logger.CloseLogger()

	if err := initDB(); err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := database.CloseDB(); err != nil {
			logger.Warning("close database err:", err)
		}
	}()

	server := web.NewServer()
	if err := server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, os.Interrupt)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			logger.Info("Received SIGHUP, restarting web server")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer()
			if err := server.Start(); err != nil {
				log.Println(err)
				return
			}
		default:
			logger.Info("Shutting down:", sig)
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func migrateDb() {
	if err := initDB(); err != nil {
		log.Fatal(err)
	}
	defer database.CloseDB()
	fmt.Println("Migration done!")
}

func seedDb() {
	if err := initDB(); err != nil {
		log.Fatal(err)
	}
	defer database.CloseDB()
	if err := database.Seed(database.GetDB(), time.Now().UTC()); err != nil {
		fmt.Println("seed failed:", err)
		return
	}
	fmt.Println("Seed done!")
}

func printFieldErrors(errs entity.FieldErrors) {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Printf("%s: %s\n", field, errs[field])
	}
}

func addUser(name, email, password string) bool {
	if err := initDB(); err != nil {
		fmt.Println(err)
		return false
	}
	defer database.CloseDB()

	authService := service.NewAuthService(database.NewStore(database.GetDB()), config.GetBcryptCost())
	errs, err := authService.Register(context.Background(), name, email, password)
	if err != nil {
		fmt.Println("add user failed:", err)
		return false
	}
	if errs.Any() {
		printFieldErrors(errs)
		return false
	}
	fmt.Printf("user %s created\n", email)
	return true
}

func addFarmer(name string, regionId int) bool {
	if err := initDB(); err != nil {
		fmt.Println(err)
		return false
	}
	defer database.CloseDB()

	farmerService := service.NewFarmerService(database.NewStore(database.GetDB()))
	farmer, errs, err := farmerService.Enroll(context.Background(), name, regionId)
	if err != nil {
		fmt.Println("add farmer failed:", err)
		return false
	}
	if errs.Any() {
		printFieldErrors(errs)
		return false
	}
	fmt.Printf("farmer %s enrolled, code: %s\n", farmer.Name, farmer.FarmerCode)
	return true
}

func runReport(name string, params service.ReportParams) bool {
	if err := initDB(); err != nil {
		fmt.Println(err)
		return false
	}
	defer database.CloseDB()

	ctx := context.Background()
	reportService := service.NewReportService(database.GetDB())

	var out any
	if name == "summary" {
		summary, err := reportService.Summary(ctx)
		if err != nil {
			fmt.Println("report failed:", err)
			return false
		}
		out = summary
	} else {
		report := service.FindReport(name)
		if report == nil {
			fmt.Println("unknown report:", name)
			return false
		}
		table, errs, err := reportService.Run(ctx, report, params)
		if err != nil {
			fmt.Println("report failed:", err)
			return false
		}
		if errs.Any() {
			printFieldErrors(errs)
			return false
		}
		out = table
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Println(err)
		return false
	}
	fmt.Println(string(data))
	return true
}

func main() {
	var rootCmd = &cobra.Command{
		Use: config.GetName(),
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDb()
		},
	}

	var seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Load demo regions, crops, markets, farmers and prices",
		Run: func(cmd *cobra.Command, args []string) {
			seedDb()
		},
	}

	var userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	var userAddCmd = &cobra.Command{
		Use:   "add",
		Short: "Register a user account",
		Run: func(cmd *cobra.Command, args []string) {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if !addUser(name, email, password) {
				os.Exit(1)
			}
		},
	}

	userAddCmd.Flags().String("name", "", "display name")
	userAddCmd.Flags().String("email", "", "login email")
	userAddCmd.Flags().String("password", "", "login password")

	var farmerCmd = &cobra.Command{
		Use:   "farmer",
		Short: "Manage farmers",
	}

	var farmerAddCmd = &cobra.Command{
		Use:   "add",
		Short: "Enroll a farmer and print the issued portal code",
		Run: func(cmd *cobra.Command, args []string) {
			name, _ := cmd.Flags().GetString("name")
			regionId, _ := cmd.Flags().GetInt("region-id")
			if !addFarmer(name, regionId) {
				os.Exit(1)
			}
		},
	}

	farmerAddCmd.Flags().String("name", "", "farmer name")
	farmerAddCmd.Flags().Int("region-id", 0, "home region id")

	var reportCmd = &cobra.Command{
		Use:   "report <name>",
		Short: "Print a market report as JSON",
		Long:  "Print a market report as JSON. Reports: summary, price-gap, market-saturation, price-trend, oversupply, climate-risk, top-farmers.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			params := service.ReportParams{}
			for flag, param := range map[string]string{
				"crop-id":   "crop_id",
				"region-id": "region_id",
				"level":     "level",
				"limit":     "limit",
				"days":      "days",
				"months":    "months",
				"factor":    "factor",
			} {
				if v, _ := cmd.Flags().GetString(flag); v != "" {
					params[param] = v
				}
			}
			if !runReport(args[0], params) {
				os.Exit(1)
			}
		},
	}

	reportCmd.Flags().String("crop-id", "", "crop id (price-trend)")
	reportCmd.Flags().String("region-id", "", "region id (market-saturation)")
	reportCmd.Flags().String("level", "", "climate risk level: low, medium or high (climate-risk)")
	reportCmd.Flags().String("limit", "", "number of farmers (top-farmers)")
	reportCmd.Flags().String("days", "", "price window in days (price-gap)")
	reportCmd.Flags().String("months", "", "number of months (price-trend)")
	reportCmd.Flags().String("factor", "", "oversupply factor (oversupply)")

	userCmd.AddCommand(userAddCmd)
	farmerCmd.AddCommand(farmerAddCmd)
	rootCmd.AddCommand(runCmd, migrateCmd, seedCmd, userCmd, farmerCmd, reportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
