package payment

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net"
    "net/http"
    "time"
)

// ErrAmbiguous marks an outbound call whose outcome is unknown (the
// request may or may not have reached the processor).  Callers must
// not treat it as a definite failure: the order may exist remotely
// and will be reconciled through the notification channel.
var ErrAmbiguous = errors.New("payment processor outcome unknown")

// ProcessorClient is the outbound surface of the payment processor.
// The production implementation talks HTTP; tests substitute a stub.
type ProcessorClient interface {
    // CreateOrder registers an order with the processor and returns
    // the processor-side order id.  orderRef is our unique reference
    // and doubles as the idempotency key on the processor side.
    CreateOrder(ctx context.Context, orderRef string, amountCents int64) (string, error)
}

// HTTPClient implements ProcessorClient against the processor's REST
// API using key/secret basic auth.
type HTTPClient struct {
    BaseURL string
    KeyID   string
    Secret  string
    HTTP    *http.Client
}

// NewHTTPClient returns a client with a bounded request timeout so a
// stalled processor cannot hold a booking transaction open forever.
func NewHTTPClient(baseURL, keyID, secret string, timeout time.Duration) *HTTPClient {
    return &HTTPClient{
        BaseURL: baseURL,
        KeyID:   keyID,
        Secret:  secret,
        HTTP:    &http.Client{Timeout: timeout},
    }
}

type createOrderReq struct {
    AmountCents int64  `json:"amount"`
    Currency    string `json:"currency"`
    Receipt     string `json:"receipt"`
}

type createOrderResp struct {
    ID string `json:"id"`
}

// CreateOrder posts an order to the processor.  Timeouts and network
// ambiguity surface as ErrAmbiguous; a well-formed non-2xx response
// is a definite failure.
func (c *HTTPClient) CreateOrder(ctx context.Context, orderRef string, amountCents int64) (string, error) {
    body, err := json.Marshal(createOrderReq{AmountCents: amountCents, Currency: "INR", Receipt: orderRef})
    if err != nil {
        return "", err
    }
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/orders", bytes.NewReader(body))
    if err != nil {
        return "", err
    }
    req.Header.Set("Content-Type", "application/json")
    req.SetBasicAuth(c.KeyID, c.Secret)

    resp, err := c.HTTP.Do(req)
    if err != nil {
        if isTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
            return "", fmt.Errorf("%w: %v", ErrAmbiguous, err)
        }
        return "", fmt.Errorf("create order request: %w", err)
    }
    defer resp.Body.Close()

    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        return "", fmt.Errorf("create order rejected: status %d", resp.StatusCode)
    }
    var out createOrderResp
    if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
        return "", fmt.Errorf("decode order response: %w", err)
    }
    if out.ID == "" {
        return "", errors.New("processor returned empty order id")
    }
    return out.ID, nil
}

func isTimeout(err error) bool {
    var ne net.Error
    return errors.As(err, &ne) && ne.Timeout()
}
