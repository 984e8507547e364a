package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/admin"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

const usage = "usage: authkeeper-cli useradd [-u username] [-d dsn] [-c config.json]"

func main() {

	if len(os.Args) < 2 || os.Args[1] != "useradd" {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()
	cfg := config.LoadConfig()

	db, rm, err := server.OpenStorage(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)
	us := services.NewUserService(db, rm, cfg, nil, logger)

	if err := admin.UserAdd(ctx, us, os.Args[2:], bufio.NewReader(os.Stdin), os.Stdout); err != nil {
		db.Close()
		log.Fatalf("%v", err)
	}

}
