package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"aura-protocol-go/internal/failure"
	"aura-protocol-go/internal/transaction"
)

// State of the wallet session.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Options configure a Gateway.
type Options struct {
	DecryptPermission string
	Network           string
	Programs          []string
	InstallURL        string
	// RequestTimeout bounds each provider call. Zero means no bound.
	RequestTimeout time.Duration
	// ReconnectPause is the wait between disconnect and connect on Reconnect.
	ReconnectPause time.Duration
}

// Status is a snapshot of the gateway state.
type Status struct {
	State      string `json:"state"`
	Connected  bool   `json:"connected"`
	Connecting bool   `json:"connecting"`
	Address    string `json:"address,omitempty"`
	Available  bool   `json:"wallet_available"`
	InstallURL string `json:"install_url,omitempty"`
}

// Gateway owns the session with one wallet provider.
type Gateway struct {
	provider Provider
	opts     Options

	mu           sync.RWMutex
	state        State
	address      string
	onDisconnect []func()
}

// NewGateway creates a gateway for provider and subscribes to its events
// when it emits any. provider may be nil when no wallet is installed.
func NewGateway(provider Provider, opts Options) *Gateway {
	g := &Gateway{provider: provider, opts: opts}
	if src, ok := provider.(EventSource); ok {
		src.On(EventAccountChange, g.handleAccountChange)
		src.On(EventDisconnect, func(any) { g.handleDisconnect() })
	}
	return g
}

// OnDisconnect registers fn to run whenever the session ends.
func (g *Gateway) OnDisconnect(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onDisconnect = append(g.onDisconnect, fn)
}

// Status returns the current session state.
func (g *Gateway) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	st := Status{
		State:      g.state.String(),
		Connected:  g.state == Connected,
		Connecting: g.state == Connecting,
		Address:    g.address,
		Available:  g.provider != nil,
	}
	if g.provider == nil {
		st.InstallURL = g.opts.InstallURL
	}
	return st
}

// Address returns the connected address, or "".
func (g *Gateway) Address() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.state != Connected {
		return ""
	}
	return g.address
}

// Connect opens a session. On any failure the gateway is left Disconnected
// and the error is returned; the caller may simply try again.
func (g *Gateway) Connect(ctx context.Context) (Status, error) {
	log := logrus.WithField("component", "wallet")

	if g.provider == nil {
		log.Warn("No wallet extension present")
		return g.Status(), failure.New(failure.KindNotInstalled, "connect",
			fmt.Sprintf("No wallet extension found. Install Leo Wallet from %s", g.opts.InstallURL))
	}

	g.mu.Lock()
	switch g.state {
	case Connecting:
		g.mu.Unlock()
		return g.Status(), failure.New(failure.KindBusy, "connect", "A wallet connection is already in progress.")
	case Connected:
		g.mu.Unlock()
		return g.Status(), nil
	}
	g.state = Connecting
	g.mu.Unlock()

	address, err := g.discoverAddress(ctx)

	g.mu.Lock()
	if err != nil || address == "" {
		g.state, g.address = Disconnected, ""
		g.mu.Unlock()
		if err == nil {
			err = failure.New(failure.KindUnrecognizedResponse, "connect",
				"Wallet connected but no address was returned. Please unlock your wallet and try again.")
		}
		log.WithError(err).Warn("Wallet connection failed")
		return g.Status(), err
	}
	g.state, g.address = Connected, address
	g.mu.Unlock()

	log.WithField("address", address).Info("Wallet connected")
	return g.Status(), nil
}

// discoverAddress runs the connect calls and looks for an address in this
// order: connect result, publicKey property, address property, selected
// account.
func (g *Gateway) discoverAddress(ctx context.Context) (string, error) {
	log := logrus.WithField("component", "wallet")

	result, err := g.connectCall(ctx)
	if err != nil {
		return "", failure.Classify("connect", err)
	}

	if addr := ExtractAddress(result); addr != "" {
		return addr, nil
	}
	if p, ok := g.provider.(PublicKeyHolder); ok && p.PublicKey() != "" {
		return p.PublicKey(), nil
	}
	if p, ok := g.provider.(AddressHolder); ok && p.Address() != "" {
		return p.Address(), nil
	}
	if sel, ok := g.provider.(AccountSelector); ok {
		callCtx, cancel := g.callContext(ctx)
		account, err := sel.GetSelectedAccount(callCtx)
		cancel()
		if err != nil {
			log.WithError(err).Debug("getSelectedAccount failed")
		} else if addr := ExtractAddress(account); addr != "" {
			return addr, nil
		}
	}

	log.WithField("result_type", describe(result)).Warn("Connected but no address found")
	return "", nil
}

// connectCall tries connect with options, connect with provider defaults,
// then requestAccess.
func (g *Gateway) connectCall(ctx context.Context) (any, error) {
	log := logrus.WithField("component", "wallet")
	var lastErr error

	if c, ok := g.provider.(Connector); ok {
		opts := ConnectOptions{
			DecryptPermission: g.opts.DecryptPermission,
			Network:           g.opts.Network,
			Programs:          g.opts.Programs,
		}
		for _, o := range []ConnectOptions{opts, {}} {
			callCtx, cancel := g.callContext(ctx)
			result, err := c.Connect(callCtx, o)
			cancel()
			if err == nil {
				return result, nil
			}
			log.WithError(err).Debug("Connect attempt failed")
			lastErr = err
		}
	}

	if a, ok := g.provider.(AccessRequester); ok {
		callCtx, cancel := g.callContext(ctx)
		defer cancel()
		return a.RequestAccess(callCtx)
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("wallet provider does not support connect")
	}
	return nil, lastErr
}

// Disconnect closes the session. Provider errors are logged; the local
// session is always cleared.
func (g *Gateway) Disconnect(ctx context.Context) error {
	if d, ok := g.provider.(Disconnector); ok {
		callCtx, cancel := g.callContext(ctx)
		if err := d.Disconnect(callCtx); err != nil {
			logrus.WithField("component", "wallet").WithError(err).Warn("Wallet disconnect error")
		}
		cancel()
	}
	g.handleDisconnect()
	return nil
}

// Reconnect disconnects, pauses, and connects again so the wallet asks for
// permissions afresh.
func (g *Gateway) Reconnect(ctx context.Context) (Status, error) {
	logrus.WithField("component", "wallet").Info("Reconnecting wallet")
	if err := g.Disconnect(ctx); err != nil {
		return g.Status(), err
	}

	if g.opts.ReconnectPause > 0 {
		timer := time.NewTimer(g.opts.ReconnectPause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return g.Status(), ctx.Err()
		case <-timer.C:
		}
	}
	return g.Connect(ctx)
}

// RequestTransaction submits req and returns the transaction id. Ids without
// the ledger prefix are wallet tracking ids; they are returned as well and
// the caller treats them as pending.
func (g *Gateway) RequestTransaction(ctx context.Context, req *transaction.Request) (string, error) {
	const op = "request transaction"
	log := logrus.WithFields(logrus.Fields{"component": "wallet", "function": req.Function()})

	if err := g.requireConnected(op); err != nil {
		return "", err
	}
	requester, ok := g.provider.(TransactionRequester)
	if !ok {
		return "", unsupported(op)
	}

	callCtx, cancel := g.callContext(ctx)
	defer cancel()
	result, err := requester.RequestTransaction(callCtx, req)
	if err != nil {
		log.WithError(err).Error("Transaction failed")
		return "", failure.Classify(op, err)
	}

	id := ExtractTransactionID(result)
	if id == "" {
		log.WithField("result_type", describe(result)).Error("No transaction id in wallet response")
		return "", failure.Wrap(failure.KindUnrecognizedResponse, op,
			fmt.Errorf("no transaction id in %s response", describe(result)))
	}
	if !transaction.IsLedgerID(id) {
		log.WithField("request_id", id).Warn("Received request id instead of transaction id")
	}
	return id, nil
}

// RequestRecords lists the records of programID held by the account.
func (g *Gateway) RequestRecords(ctx context.Context, programID string) ([]Record, error) {
	entries, err := g.rawRecords(ctx, programID)
	if err != nil {
		return nil, err
	}

	records, skipped := DecodeRecords(entries)
	if skipped > 0 {
		logrus.WithFields(logrus.Fields{"component": "wallet", "skipped": skipped}).Warn("Skipped undecodable records")
	}
	return records, nil
}

// RequestRecordPlaintexts lists record plaintexts for use as transaction
// inputs. When the provider cannot decrypt on request, records are listed
// instead and each is reduced to its plaintext when it carries one. Entries
// are strings or record objects, ready for transaction.RecordInput.
func (g *Gateway) RequestRecordPlaintexts(ctx context.Context, programID string) ([]any, error) {
	const op = "request record plaintexts"
	if err := g.requireConnected(op); err != nil {
		return nil, err
	}

	if p, ok := g.provider.(PlaintextRequester); ok {
		callCtx, cancel := g.callContext(ctx)
		defer cancel()
		result, err := p.RequestRecordPlaintexts(callCtx, programID)
		if err != nil {
			logrus.WithField("component", "wallet").WithError(err).Error("Get record plaintexts failed")
			return nil, failure.Classify(op, err)
		}
		list, ok := RecordList(result)
		if !ok {
			return nil, failure.Wrap(failure.KindUnrecognizedResponse, op,
				fmt.Errorf("unrecognized plaintexts response %s", describe(result)))
		}
		return list, nil
	}

	entries, err := g.rawRecords(ctx, programID)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(entries))
	for i, entry := range entries {
		out[i] = entry
		if m, ok := entry.(map[string]any); ok {
			if s, ok := m["plaintext"].(string); ok && s != "" {
				out[i] = s
			}
		}
	}
	return out, nil
}

// SignMessage signs message and returns the signature.
func (g *Gateway) SignMessage(ctx context.Context, message string) (string, error) {
	const op = "sign message"
	if err := g.requireConnected(op); err != nil {
		return "", err
	}
	signer, ok := g.provider.(MessageSigner)
	if !ok {
		return "", unsupported(op)
	}

	callCtx, cancel := g.callContext(ctx)
	defer cancel()
	result, err := signer.SignMessage(callCtx, []byte(message))
	if err != nil {
		logrus.WithField("component", "wallet").WithError(err).Error("Sign message failed")
		return "", failure.Classify(op, err)
	}

	sig := ExtractSignature(result)
	if sig == "" {
		return "", failure.Wrap(failure.KindUnrecognizedResponse, op,
			fmt.Errorf("no signature in %s response", describe(result)))
	}
	return sig, nil
}

func (g *Gateway) rawRecords(ctx context.Context, programID string) ([]any, error) {
	const op = "request records"
	if err := g.requireConnected(op); err != nil {
		return nil, err
	}
	requester, ok := g.provider.(RecordRequester)
	if !ok {
		return nil, unsupported(op)
	}

	callCtx, cancel := g.callContext(ctx)
	defer cancel()
	result, err := requester.RequestRecords(callCtx, programID)
	if err != nil {
		logrus.WithField("component", "wallet").WithError(err).Error("Get records failed")
		return nil, failure.Classify(op, err)
	}

	list, ok := RecordList(result)
	if !ok {
		return nil, failure.Wrap(failure.KindUnrecognizedResponse, op,
			fmt.Errorf("unrecognized records response %s", describe(result)))
	}
	return list, nil
}

func (g *Gateway) requireConnected(op string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.provider == nil || g.state != Connected {
		return failure.New(failure.KindNotConnected, op, "")
	}
	return nil
}

func (g *Gateway) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.opts.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.opts.RequestTimeout)
}

func (g *Gateway) handleAccountChange(payload any) {
	addr := ExtractAddress(payload)
	if addr == "" {
		if p, ok := g.provider.(PublicKeyHolder); ok {
			addr = p.PublicKey()
		}
	}
	if addr == "" {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Connected && addr != g.address {
		logrus.WithFields(logrus.Fields{"component": "wallet", "address": addr}).Info("Wallet account changed")
		g.address = addr
	}
}

func (g *Gateway) handleDisconnect() {
	g.mu.Lock()
	wasConnected := g.state != Disconnected
	g.state, g.address = Disconnected, ""
	hooks := append([]func(){}, g.onDisconnect...)
	g.mu.Unlock()

	if wasConnected {
		logrus.WithField("component", "wallet").Info("Wallet disconnected")
	}
	for _, fn := range hooks {
		fn()
	}
}

func unsupported(op string) error {
	return failure.Wrap(failure.KindUnrecognizedResponse, op,
		fmt.Errorf("wallet provider does not support %s", op))
}
