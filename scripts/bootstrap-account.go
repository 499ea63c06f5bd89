// Command bootstrap-account provisions an account directly in the
// database, for standing up a fresh deployment before the admin API has
// any accounts to authenticate against.
//
//	go run scripts/bootstrap-account.go -username alice -password secret -plan premium -months 12 -admin
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/subsgate/subsgate/internal/auth"
	"github.com/subsgate/subsgate/internal/model"
	"github.com/subsgate/subsgate/internal/repository"
	"github.com/subsgate/subsgate/internal/service"
)

type output struct {
	AccountID  string     `json:"account_id"`
	Username   string     `json:"username"`
	Plan       string     `json:"plan"`
	PlanExpiry *time.Time `json:"plan_expiry,omitempty"`
	IsAdmin    bool       `json:"is_admin"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		username    = flag.String("username", "", "Account username")
		password    = flag.String("password", "", "Account password")
		plan        = flag.String("plan", "free", "Plan tier (free, basic, premium)")
		months      = flag.Int("months", 0, "Months of entitlement from now (0 = no expiry set)")
		isAdmin     = flag.Bool("admin", false, "Mark the account as an admin")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "-username and -password are required")
		os.Exit(1)
	}
	tier := model.Plan(*plan)
	if !tier.IsValid() {
		fmt.Fprintln(os.Stderr, "plan must be one of: free, basic, premium")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash password:", err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	var expiry *time.Time
	if *months > 0 {
		e := service.AddMonths(now, *months)
		expiry = &e
	}

	account := &model.Account{
		ID:             uuid.NewString(),
		Username:       *username,
		CredentialHash: hash,
		Devices:        []string{},
		Plan:           tier,
		PlanExpiry:     expiry,
		IsAdmin:        *isAdmin,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := repo.CreateAccount(ctx, account); err != nil {
		fmt.Fprintln(os.Stderr, "create account:", err)
		os.Exit(1)
	}

	result := output{
		AccountID:  account.ID,
		Username:   account.Username,
		Plan:       string(account.Plan),
		PlanExpiry: account.PlanExpiry,
		IsAdmin:    account.IsAdmin,
	}

	if *format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintln(os.Stderr, "encode output:", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("account id: ", result.AccountID)
	fmt.Println("username:   ", result.Username)
	fmt.Println("plan:       ", result.Plan)
	if result.PlanExpiry != nil {
		fmt.Println("expires:    ", result.PlanExpiry.Format(time.RFC3339))
	}
	fmt.Println("admin:      ", result.IsAdmin)
}
