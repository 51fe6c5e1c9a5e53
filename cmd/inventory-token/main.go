// Command inventory-token prints a signed access token for local testing of
// the inventory API with auth enabled. It reads the same OMIAM_JWT_* settings
// as the service.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/omiam/omiam-backend/internal/auth/jwt"
	"github.com/omiam/omiam-backend/pkg/config"
)

func main() {
	userID := flag.String("user", "dev-manager", "user id, used as the default employeeId")
	name := flag.String("name", "Dev Manager", "display name")
	role := flag.String("role", "manager", "role: admin, manager, kitchen or staff")
	perms := flag.String("permissions", "", "comma-separated permissions overriding the role defaults")
	flag.Parse()

	cfg, err := config.Load("inventory-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if config.IsProductionLike(cfg.Server.Environment) {
		fmt.Fprintf(os.Stderr, "refusing to issue tokens in %s\n", cfg.Server.Environment)
		os.Exit(1)
	}

	var permissions []string
	for _, p := range strings.Split(*perms, ",") {
		if p = strings.TrimSpace(p); p != "" {
			permissions = append(permissions, p)
		}
	}

	token, expiresAt, err := jwt.NewManager(&cfg.JWT).GenerateAccessToken(&jwt.UserInfo{
		ID:          *userID,
		Name:        *name,
		Role:        *role,
		Permissions: permissions,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Println(token)
}
