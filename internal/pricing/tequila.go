package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"farewatch/internal/domain"
)

const dateFormat = "02/01/2006"

// TequilaClient quotes a route against a Tequila-style flight search
// API. The cheapest itinerary is the first element because results are
// requested sorted by price.
type TequilaClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewTequilaClient(baseURL, apiKey string, timeout time.Duration) *TequilaClient {
	return &TequilaClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	Data []struct {
		Price    float64 `json:"price"`
		Currency string  `json:"currency"`
		DeepLink string  `json:"deep_link"`
	} `json:"data"`
	Currency string `json:"currency"`
}

func (c *TequilaClient) FetchPrice(ctx context.Context, route Route) (*domain.PriceQuote, error) {
	dep := time.Now().UTC().Add(24 * time.Hour)
	if route.DepartureDate != nil {
		dep = *route.DepartureDate
	}
	currency := route.Currency
	if currency == "" {
		currency = "USD"
	}

	q := url.Values{}
	q.Set("fly_from", route.Origin)
	q.Set("fly_to", route.Destination)
	q.Set("date_from", dep.Format(dateFormat))
	q.Set("date_to", dep.Format(dateFormat))
	if route.ReturnDate != nil {
		q.Set("return_from", route.ReturnDate.Format(dateFormat))
		q.Set("return_to", route.ReturnDate.Format(dateFormat))
	}
	q.Set("curr", currency)
	q.Set("limit", "10")
	q.Set("sort", "price")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v2/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fetchErr(FetchPermanent, err)
	}
	if c.APIKey != "" {
		req.Header.Set("apikey", c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fetchErr(FetchTimeout, err)
		}
		var ue *url.Error
		if errors.As(err, &ue) && ue.Timeout() {
			return nil, fetchErr(FetchTimeout, err)
		}
		return nil, fetchErr(FetchTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fetchErr(FetchTransport, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fetchErr(FetchRateLimited, errors.New("provider rate limit"))
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		// malformed route / unsupported currency — retrying won't help
		return nil, fetchErr(FetchPermanent, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200)))
	case resp.StatusCode/100 != 2:
		return nil, fetchErr(FetchTransport, fmt.Errorf("status %d", resp.StatusCode))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fetchErr(FetchTransport, fmt.Errorf("decode: %w", err))
	}
	if len(sr.Data) == 0 {
		return nil, fetchErr(FetchNoResult, errors.New("no itineraries for "+route.String()))
	}

	cheapest := sr.Data[0]
	cur := cheapest.Currency
	if cur == "" {
		cur = sr.Currency
	}
	if cur == "" {
		cur = currency
	}
	return &domain.PriceQuote{
		Price:      cheapest.Price,
		Currency:   cur,
		BookingURL: cheapest.DeepLink,
		RawPayload: body,
	}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "... (" + strconv.Itoa(len(b)) + " bytes)"
}
