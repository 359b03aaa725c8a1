package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kuticlicker/backend/auth"
	"github.com/kuticlicker/backend/config"
)

func main() {
	subject := flag.String("sub", "operator", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load()
	token, err := auth.NewTokenManager(cfg.AdminJWTSecret, *ttl).Generate(*subject, auth.RoleAdmin, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "admintoken: %v (is ADMIN_JWT_SECRET set?)\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
