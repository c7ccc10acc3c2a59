package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gituserindia/eptest-sub000/internal/config"
	"github.com/gituserindia/eptest-sub000/internal/domain"
	"github.com/gituserindia/eptest-sub000/pkg/jwt"
)

// 세션 서비스 없이 운영/스테이징에서 스태프 토큰을 발급할 때 사용
func main() {
	configPath := flag.String("config", "configs/config.local.yaml", "config file path")
	userID := flag.Int64("user", 0, "staff user id")
	name := flag.String("name", "", "display name")
	role := flag.String("role", string(domain.RoleEditor), "superadmin | admin | editor | viewer")
	flag.Parse()

	config.LoadDotEnv(".")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	r, ok := domain.ParseRole(*role)
	if !ok {
		log.Fatalf("Unknown role %q", *role)
	}
	if *userID <= 0 {
		log.Fatal("-user must be a positive id")
	}

	token, err := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn).GenerateToken(*userID, *name, string(r))
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Fprintln(os.Stdout, token)
}
