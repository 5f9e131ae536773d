package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// ----------------------------------------------------------------------------
// Config ---------------------------------------------------------------------
var (
	baseURL = flag.String("url", env("API_BASE_URL", "http://localhost:8080"), "Server base URL")
	nUsers  = flag.Int("n", envInt("COUNT", 25), "How many users to register")
	domain  = flag.String("domain", env("SEED_DOMAIN", "example.com"), "E-mail domain for generated users")
	seed    = flag.Int64("seed", 0, "Faker seed (0 = time based)")
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return def
}

// ----------------------------------------------------------------------------
// HTTP helpers ---------------------------------------------------------------
func postJSON(path string, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(*baseURL, "/")+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return http.DefaultClient.Do(req)
}

func must(body io.ReadCloser) []byte {
	defer body.Close()
	data, _ := io.ReadAll(body)
	return data
}

// ----------------------------------------------------------------------------
// Main -----------------------------------------------------------------------
func main() {
	flag.Parse()
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(*seed)

	fmt.Printf("Seeding %d users on %s\n", *nUsers, *baseURL)

	created, skipped := 0, 0
	for i := 1; i <= *nUsers; i++ {
		u := fakeUser(faker, *domain)

		ok, err := register(u)
		if err != nil {
			fmt.Fprintln(os.Stderr, "FATAL:", err)
			os.Exit(1)
		}
		if !ok {
			skipped++
			continue
		}
		created++
		fmt.Printf("  %-40s %s\n", u.Email, u.Password)
	}

	fmt.Printf("done: %d created, %d already existed\n", created, skipped)
}

type seedUser struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// fakeUser builds a user whose password satisfies the server's policy.
func fakeUser(f *gofakeit.Faker, domain string) seedUser {
	first, last := f.FirstName(), f.LastName()
	local := strings.ToLower(first + "." + last + strconv.Itoa(f.Number(1, 9999)))
	return seedUser{
		FullName: first + " " + last,
		Email:    local + "@" + domain,
		Password: strongPassword(f),
	}
}

// strongPassword tops up a random password with one character of every
// required class; gofakeit alone does not guarantee each appears.
func strongPassword(f *gofakeit.Faker) string {
	return f.Password(true, true, true, true, false, 10) +
		strings.ToUpper(f.Letter()) +
		strings.ToLower(f.Letter()) +
		f.Digit() +
		f.RandomString([]string{"!", "@", "#", "$", "%", "&", "*"})
}

// register returns false when the email is already taken.
func register(u seedUser) (bool, error) {
	resp, err := postJSON("/register", u)
	if err != nil {
		return false, err
	}
	body := must(resp.Body)

	switch {
	case resp.StatusCode == http.StatusCreated:
		return true, nil
	case resp.StatusCode == http.StatusBadRequest && bytes.Contains(body, []byte("Email already exists")):
		return false, nil
	default:
		return false, fmt.Errorf("register %s failed (%d): %s", u.Email, resp.StatusCode, body)
	}
}
