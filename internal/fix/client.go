package fix

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/fix44/marketdatarequest"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/quickfix/store/file"
	log "github.com/sirupsen/logrus"

	"Spread_Hedger/internal/data"
	"Spread_Hedger/internal/model"
)

// Credentials are injected into the Logon message (553/554).
type Credentials struct {
	Username string
	Password string
}

// Router routes orders over a FIX 4.4 session and feeds market data from
// the same session into a QuoteStore. It implements quickfix.Application.
type Router struct {
	quotes  *data.QuoteStore
	creds   Credentials
	timeout time.Duration

	mu      sync.Mutex
	symbols []string
	session *quickfix.SessionID
	pending map[string]chan model.OrderResult

	send      func(m quickfix.Messagable, id quickfix.SessionID) error
	initiator *quickfix.Initiator
}

func NewRouter(quotes *data.QuoteStore, creds Credentials) *Router {
	return &Router{
		quotes:  quotes,
		creds:   creds,
		timeout: 10 * time.Second,
		pending: make(map[string]chan model.OrderResult),
		send:    quickfix.SendToTarget,
	}
}

// Subscribe sets the symbols requested on every logon and, when a
// session is already up, requests them right away.
func (r *Router) Subscribe(symbols ...string) {
	r.mu.Lock()
	r.symbols = append(r.symbols, symbols...)
	session := r.session
	r.mu.Unlock()

	if session != nil {
		r.requestMarketData(*session, symbols)
	}
}

// Start launches the initiator described by the quickfix settings file.
func (r *Router) Start(cfgPath string) error {
	absPath, err := filepath.Abs(cfgPath)
	if err != nil {
		return err
	}
	f, err := os.Open(absPath)
	if err != nil {
		return err
	}
	defer f.Close()

	settings, err := quickfix.ParseSettings(f)
	if err != nil {
		return err
	}

	initr, err := quickfix.NewInitiator(r, file.NewStoreFactory(settings), settings, quickfix.NewNullLogFactory())
	if err != nil {
		return err
	}
	r.initiator = initr
	return initr.Start()
}

func (r *Router) Stop() {
	if r.initiator != nil {
		r.initiator.Stop()
	}
}

func (r *Router) OnCreate(id quickfix.SessionID) {}

func (r *Router) OnLogon(id quickfix.SessionID) {
	log.Infof("[FIX] logon %s", id)
	r.mu.Lock()
	r.session = &id
	symbols := append([]string(nil), r.symbols...)
	r.mu.Unlock()

	if len(symbols) > 0 {
		r.requestMarketData(id, symbols)
	}
}

func (r *Router) OnLogout(id quickfix.SessionID) {
	log.Warnf("[FIX] logout %s", id)
	r.mu.Lock()
	r.session = nil
	r.mu.Unlock()
}

func (r *Router) ToAdmin(msg *quickfix.Message, id quickfix.SessionID) {
	msgType, _ := msg.Header.GetString(quickfix.Tag(35))
	if msgType != "A" || r.creds.Username == "" {
		return
	}
	msg.Body.SetField(quickfix.Tag(553), quickfix.FIXString(r.creds.Username))
	msg.Body.SetField(quickfix.Tag(554), quickfix.FIXString(r.creds.Password))
}

func (r *Router) ToApp(msg *quickfix.Message, id quickfix.SessionID) error { return nil }

func (r *Router) FromAdmin(msg *quickfix.Message, id quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}

func (r *Router) FromApp(msg *quickfix.Message, id quickfix.SessionID) quickfix.MessageRejectError {
	msgType, _ := msg.Header.GetString(quickfix.Tag(35))
	switch msgType {
	case "8":
		r.onExecutionReport(msg)
	case "W", "X":
		r.onMarketData(msg, msgType)
	default:
		log.Debugf("[FIX] ignoring MsgType=%s", msgType)
	}
	return nil
}

func (r *Router) requestMarketData(id quickfix.SessionID, symbols []string) {
	mdReq := marketdatarequest.New(
		field.NewMDReqID("LTP-"+time.Now().Format("150405")),
		field.NewSubscriptionRequestType(enum.SubscriptionRequestType_SNAPSHOT_PLUS_UPDATES),
		field.NewMarketDepth(1),
	)
	mdReq.Set(field.NewMDUpdateType(enum.MDUpdateType_INCREMENTAL_REFRESH))
	mdReq.Set(field.NewAggregatedBook(true))

	entryTypes := marketdatarequest.NewNoMDEntryTypesRepeatingGroup()
	for _, t := range []enum.MDEntryType{enum.MDEntryType_BID, enum.MDEntryType_OFFER, enum.MDEntryType_TRADE} {
		entryTypes.Add().Set(field.NewMDEntryType(t))
	}
	mdReq.SetGroup(entryTypes)

	symGroup := marketdatarequest.NewNoRelatedSymRepeatingGroup()
	for _, sym := range symbols {
		symGroup.Add().Set(field.NewSymbol(sym))
	}
	mdReq.SetGroup(symGroup)

	if err := r.send(mdReq, id); err != nil {
		log.Errorf("[FIX] MarketDataRequest send error: %v", err)
		return
	}
	log.Infof("[FIX] MarketDataRequest sent for %d symbols", len(symbols))
}
