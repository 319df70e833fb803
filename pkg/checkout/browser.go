package checkout

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/browser"
)

// DefaultScriptURL is the gateway's hosted checkout script.
const DefaultScriptURL = "https://checkout.razorpay.com/v1/checkout.js"

// BrowserProvider acquires a Widget that runs the gateway's checkout script
// in the user's browser and receives its callbacks on a loopback server.
type BrowserProvider struct {
	// ScriptURL is the checkout script to embed. Defaults to DefaultScriptURL.
	ScriptURL string

	// HTTPClient is used to check the script is reachable.
	HTTPClient *http.Client

	// OpenURL opens the checkout page. Defaults to the system browser.
	OpenURL func(url string) error

	// Announce, if set, is told the checkout page URL before it is opened.
	Announce func(url string)

	Logger hclog.Logger

	mu     sync.Mutex
	widget *BrowserWidget
}

// NewBrowserProvider creates a provider for the given script URL.
func NewBrowserProvider(scriptURL string, logger hclog.Logger) *BrowserProvider {
	if scriptURL == "" {
		scriptURL = DefaultScriptURL
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &BrowserProvider{
		ScriptURL:  scriptURL,
		HTTPClient: cleanhttp.DefaultClient(),
		OpenURL:    browser.OpenURL,
		Logger:     logger,
	}
}

// Ensure checks once that the checkout script can be fetched and returns the
// widget. A successful acquisition is reused for the life of the provider;
// a failed one is not remembered.
func (p *BrowserProvider) Ensure(ctx context.Context) (Widget, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.widget != nil {
		return p.widget, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.ScriptURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScriptUnavailable, err)
	}
	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		p.Logger.Warn("checkout script unreachable", "url", p.ScriptURL, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrScriptUnavailable, err)
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.Logger.Warn("checkout script unavailable", "url", p.ScriptURL, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrScriptUnavailable, resp.StatusCode)
	}

	p.widget = &BrowserWidget{
		scriptURL: p.ScriptURL,
		openURL:   p.OpenURL,
		announce:  p.Announce,
		logger:    p.Logger.Named("checkout"),
	}
	p.Logger.Debug("checkout script loaded", "url", p.ScriptURL)
	return p.widget, nil
}

// nonceHeader carries the per-page secret on every callback.
const nonceHeader = "X-Checkout-Nonce"

// BrowserWidget serves a one-shot checkout page on 127.0.0.1.
type BrowserWidget struct {
	scriptURL string
	openURL   func(url string) error
	announce  func(url string)
	logger    hclog.Logger
}

// Open serves the checkout page, opens it, and waits until the payment
// completes, the sheet is dismissed, or ctx ends. A failed attempt does not
// end the wait because the gateway lets the user retry from the same sheet;
// it is reported only if the sheet is then dismissed.
func (w *BrowserWidget) Open(ctx context.Context, opts Options) (Result, error) {
	nonce, err := newNonce()
	if err != nil {
		return Result{}, err
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return Result{}, fmt.Errorf("failed to start checkout callback server: %w", err)
	}

	results := make(chan Result, 1)
	var once sync.Once
	deliver := func(r Result) {
		once.Do(func() { results <- r })
	}

	srv := &http.Server{
		Handler:           w.routes(opts, nonce, deliver),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			w.logger.Error("checkout callback server stopped", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	pageURL := "http://" + listener.Addr().String() + "/"
	if w.announce != nil {
		w.announce(pageURL)
	}
	if w.openURL != nil {
		if err := w.openURL(pageURL); err != nil {
			w.logger.Warn("could not open browser, visit the checkout page manually", "url", pageURL, "error", err)
		}
	}

	select {
	case r := <-results:
		w.logger.Debug("checkout closed", "outcome", r.Outcome, "order_id", opts.OrderID)
		return r, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func newNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate checkout nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// requireNonce rejects callbacks that did not come from the served page.
func requireNonce(nonce string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			got := req.Header.Get(nonceHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(nonce)) != 1 {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(rw, req)
		})
	}
}

func (w *BrowserWidget) routes(opts Options, nonce string, deliver func(Result)) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", func(rw http.ResponseWriter, req *http.Request) {
		rw.Header().Set("Content-Type", "text/html; charset=utf-8")
		rw.Header().Set("Cache-Control", "no-store")
		data := struct {
			ScriptURL string
			Nonce     string
			Options   Options
		}{w.scriptURL, nonce, opts}
		if err := checkoutPage.Execute(rw, data); err != nil {
			w.logger.Error("failed to render checkout page", "error", err)
		}
	})

	var (
		mu          sync.Mutex
		lastFailure *Failure
	)

	r.Group(func(r chi.Router) {
		r.Use(requireNonce(nonce))

		r.Post("/complete", func(rw http.ResponseWriter, req *http.Request) {
			var c Completion
			if err := json.NewDecoder(req.Body).Decode(&c); err != nil || c.PaymentID == "" {
				http.Error(rw, "invalid completion payload", http.StatusBadRequest)
				return
			}
			deliver(Completed(c))
			rw.WriteHeader(http.StatusNoContent)
		})

		r.Post("/dismiss", func(rw http.ResponseWriter, req *http.Request) {
			mu.Lock()
			f := lastFailure
			mu.Unlock()
			if f != nil {
				deliver(Failed(*f))
			} else {
				deliver(Dismissed())
			}
			rw.WriteHeader(http.StatusNoContent)
		})

		r.Post("/failed", func(rw http.ResponseWriter, req *http.Request) {
			var f Failure
			if err := json.NewDecoder(req.Body).Decode(&f); err != nil {
				http.Error(rw, "invalid failure payload", http.StatusBadRequest)
				return
			}
			mu.Lock()
			lastFailure = &f
			mu.Unlock()
			w.logger.Debug("payment attempt failed, waiting for retry", "order_id", f.OrderID, "code", f.Code)
			rw.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}

var checkoutPage = template.Must(template.New("checkout").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Options.Name}} checkout</title>
<script src="{{.ScriptURL}}"></script>
</head>
<body>
<p id="status">Opening secure checkout&hellip;</p>
<script>
(function () {
  var status = document.getElementById("status");
  var nonce = {{.Nonce}};
  function post(path, body) {
    return fetch("/" + path, {
      method: "POST",
      headers: {"Content-Type": "application/json", "X-Checkout-Nonce": nonce},
      body: JSON.stringify(body || {})
    });
  }
  function finish(text) {
    return function () { status.textContent = text; };
  }
  var opts = {{.Options}};
  opts.handler = function (resp) {
    post("complete", resp).then(finish("Payment received. You can close this tab."));
  };
  opts.modal = {
    ondismiss: function () {
      post("dismiss").then(finish("Payment cancelled. You can close this tab."));
    }
  };
  var sheet = new Razorpay(opts);
  sheet.on("payment.failed", function (resp) {
    var e = resp.error || {};
    var meta = e.metadata || {};
    post("failed", {
      code: e.code, description: e.description, source: e.source,
      step: e.step, reason: e.reason,
      order_id: meta.order_id, payment_id: meta.payment_id
    }).then(finish("Payment failed: " + (e.description || "unknown error") + ". You can retry in the checkout window."));
  });
  sheet.open();
})();
</script>
</body>
</html>
`))
