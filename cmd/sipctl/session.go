package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

type principal struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Region     string `json:"region"`
}

type session struct {
	Access  string    `json:"access"`
	Refresh string    `json:"refresh"`
	User    principal `json:"user"`
}

func loadSession() (*session, error) {
	p, err := sessionPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("corrupt session file %s: %w", p, err)
	}
	return &s, nil
}

func saveSession(s *session) error {
	p, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o600)
}

var (
	loginID       string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated principal",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVar(&loginID, "id", "", "Employee id")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (default: SIPCTL_PASSWORD or prompt)")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	reader := bufio.NewReader(cmd.InOrStdin())
	id := loginID
	if id == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Employee ID: ")
		line, _ := reader.ReadString('\n')
		id = strings.TrimSpace(line)
	}
	password := loginPassword
	if password == "" {
		password = os.Getenv("SIPCTL_PASSWORD")
	}
	if password == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		line, _ := reader.ReadString('\n')
		password = strings.TrimRight(line, "\r\n")
	}

	var s session
	body := map[string]string{"employee_id": id, "password": password}
	if err := newClient().sendJSON(http.MethodPost, "/api/auth/login", body, &s); err != nil {
		return err
	}
	if err := saveSession(&s); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s, %s)\n", s.User.Name, s.User.EmployeeID, s.User.Role)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	s, err := loadSession()
	if err != nil {
		return err
	}
	if s == nil {
		return errors.New("not logged in")
	}
	if err := newClient().sendJSON(http.MethodPost, "/api/auth/logout", map[string]string{"refresh": s.Refresh}, nil); err != nil {
		return err
	}
	p, _ := sessionPath()
	_ = os.Remove(p)
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	var p principal
	if err := newClient().getJSON("/api/auth/me", &p); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if structured() {
		return printOutput(out, p)
	}
	printTable(out, []string{"Employee ID", "Name", "Role", "Region"},
		[][]string{{p.EmployeeID, p.Name, p.Role, p.Region}})
	return nil
}
