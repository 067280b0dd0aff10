package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/stemsi/exstem-distributor/internal/config"
	"github.com/stemsi/exstem-distributor/internal/logger"
	"github.com/stemsi/exstem-distributor/internal/service"
	"golang.org/x/term"
)

// issue-token mints a signed access token for local development and
// scripted tests. Missing flags are prompted for when stdin is a terminal.
func main() {
	var email, role string
	flag.StringVar(&email, "email", "", "Identity carried by the token")
	flag.StringVar(&role, "role", "", "teacher or student")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, "")

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	reader := bufio.NewReader(os.Stdin)

	if email == "" && interactive {
		email = prompt(reader, "Enter Email: ")
	}
	if role == "" && interactive {
		role = prompt(reader, "Enter Role (teacher/student): ")
	}

	parsed, err := service.ParseRole(role)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid role")
	}

	token, err := service.NewAuthService(cfg).IssueToken(email, parsed)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to issue token")
	}

	// Piped output gets the bare token so it can be captured by scripts.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println(token)
		return
	}
	fmt.Printf("\nToken for %s (%s), valid for %s:\n\n%s\n", strings.ToLower(strings.TrimSpace(email)), parsed, cfg.JWTExpiry, token)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
