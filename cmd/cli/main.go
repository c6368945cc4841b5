package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
)

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	raw, _ := reader.ReadString('\n')
	return strings.TrimSpace(raw)
}

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}
	adminKey := os.Getenv("ADMIN_API_KEY")

	reader := bufio.NewReader(os.Stdin)

	origin := strings.ToUpper(prompt(reader, "Origin airport (e.g., OSL): "))
	dest := strings.ToUpper(prompt(reader, "Destination airport (e.g., JFK): "))
	if len(origin) != 3 || len(dest) != 3 {
		fmt.Println("Airports must be 3-letter IATA codes.")
		return
	}

	target, err := strconv.ParseFloat(prompt(reader, "Target price (e.g., 500): "), 64)
	if err != nil || target <= 0 {
		fmt.Println("Invalid target price.")
		return
	}

	depart := prompt(reader, "Departure date YYYY-MM-DD (empty for any): ")
	chatID := prompt(reader, "Telegram chat id: ")
	userID := prompt(reader, "User id: ")

	payload := map[string]any{
		"user_id":      userID,
		"chat_id":      chatID,
		"origin":       origin,
		"destination":  dest,
		"target_price": target,
	}
	if depart != "" {
		payload["departure_date"] = depart
	}

	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, api+"/api/alerts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if adminKey != "" {
		req.Header.Set("X-API-Key", adminKey)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		fmt.Println("Alert created! The scheduler will start watching this route.")
	} else {
		fmt.Println("API returned status:", resp.Status)
	}
}
