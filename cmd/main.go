package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/Lumerin-protocol/airnode-gate/internal/accesscontrol"
	"github.com/Lumerin-protocol/airnode-gate/internal/authorizer"
	"github.com/Lumerin-protocol/airnode-gate/internal/beacon"
	"github.com/Lumerin-protocol/airnode-gate/internal/chain"
	"github.com/Lumerin-protocol/airnode-gate/internal/config"
	"github.com/Lumerin-protocol/airnode-gate/internal/handlers/httphandlers"
	"github.com/Lumerin-protocol/airnode-gate/internal/interfaces"
	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/Lumerin-protocol/airnode-gate/internal/payment"
	"github.com/Lumerin-protocol/airnode-gate/internal/rrp"
	"github.com/Lumerin-protocol/airnode-gate/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// deployer owns no roles, contracts are deployed from it so their addresses are stable
var deployer = common.HexToAddress("0x000000000000000000000000000000000000dEaD")

func main() {
	err := start()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func start() error {
	var cfg config.Config
	err := config.LoadConfig(&cfg, &os.Args)
	if err != nil {
		return err
	}

	logFile := func(name string) string {
		if cfg.Log.FolderPath == "" {
			return ""
		}
		return filepath.Join(cfg.Log.FolderPath, name+".log")
	}

	log, err := lib.NewLogger(cfg.Log.LevelApp, cfg.Log.Color, cfg.Log.IsProd, cfg.Log.JSON, logFile("app"))
	if err != nil {
		return err
	}
	httpLog, err := lib.NewLogger(cfg.Log.LevelHTTP, cfg.Log.Color, cfg.Log.IsProd, cfg.Log.JSON, logFile("http"))
	if err != nil {
		return err
	}
	ledgerLog, err := lib.NewLogger(cfg.Log.LevelLedger, cfg.Log.Color, cfg.Log.IsProd, cfg.Log.JSON, logFile("ledger"))
	if err != nil {
		return err
	}

	defer func() {
		_ = log.Sync()
		_ = httpLog.Sync()
		_ = ledgerLog.Sync()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-shutdownChan
		log.Warnf("Received signal: %s", s)
		cancel()

		s = <-shutdownChan
		log.Warnf("Received signal: %s. Forcing exit...", s)
		os.Exit(1)
	}()

	chainID, err := resolveChainID(ctx, cfg, log)
	if err != nil {
		return err
	}
	if cfg.Chain.Tag == "" {
		cfg.Chain.Tag = chainID.String()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	l := ledger.NewLedger(chainID, ledger.SystemClock(), ledger.NewEventLog(cfg.Ledger.EventHistory), ledger.NewMetrics(registry), ledgerLog.Named("LEDGER"))

	services, err := deploy(l, &cfg, ledgerLog)
	if err != nil {
		return err
	}
	services.Gatherer = registry

	if services.AirnodeMnemonic != "" {
		airnode, _, err := rrp.DeriveAirnodeWallet(services.AirnodeMnemonic)
		if err != nil {
			return err
		}
		log.Infof("serving sponsor wallets of airnode %s", airnode.Hex())
	}

	publicUrl, err := url.Parse(cfg.Web.PublicUrl)
	if err != nil {
		return err
	}

	handl := httphandlers.NewHTTPHandler(services, &cfg, publicUrl, httpLog.Named("HTTP"))
	server := &http.Server{
		Addr:              cfg.Web.Address,
		Handler:           handl,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("http server is listening: %s", cfg.Web.Address)
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Infof("App exited due to %v", err)
	return err
}

func resolveChainID(ctx context.Context, cfg config.Config, log interfaces.ILogger) (*big.Int, error) {
	if cfg.Chain.EthNodeAddress == "" {
		return chain.ResolveChainID(ctx, nil, cfg.Chain.ID, log)
	}

	dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := chain.DialContext(dialCtx, cfg.Chain.EthNodeAddress)
	if err != nil {
		return nil, lib.WrapError(chain.ErrChainID, err)
	}
	defer client.Close()

	return chain.ResolveChainID(dialCtx, client, cfg.Chain.ID, log)
}

// deploy creates the contracts and binds the requester authorizer to this chain's tag
func deploy(l *ledger.Ledger, cfg *config.Config, log interfaces.ILogger) (httphandlers.Services, error) {
	manager := common.HexToAddress(cfg.Ledger.Manager)

	registry := accesscontrol.NewRegistry(l, deployer, log.Named("ACCESS"))
	requesters := authorizer.NewWithAirnode(l, deployer, registry, log.Named("REQUESTERS"))
	readers, err := authorizer.NewWithManager(l, deployer, registry, manager, log.Named("READERS"))
	if err != nil {
		return httphandlers.Services{}, err
	}
	r := rrp.NewRrp(l, deployer, log.Named("RRP"))
	beacons := beacon.NewServer(l, deployer, r, readers, log.Named("BEACON"))
	tok := token.NewToken(l, deployer, cfg.Payment.TokenSymbol, uint8(cfg.Payment.TokenDecimals), log.Named("TOKEN"))
	_, err = l.Execute(deployer, func(tx *ledger.Tx) error {
		return tok.SetMinter(tx, common.HexToAddress(cfg.Payment.TokenMinter))
	})
	if err != nil {
		return httphandlers.Services{}, err
	}
	log.Infof("%s minted by %s", cfg.Payment.TokenSymbol, cfg.Payment.TokenMinter)

	var feed payment.PriceFeed = payment.FixedPrice{Value: cfg.PaymentTokenPriceUSD()}
	if cfg.Payment.PriceBeaconID != "" {
		// the zero reader bypasses the reader whitelist, same as an off-chain read
		feed = beacon.NewFeed(beacons, common.HexToHash(cfg.Payment.PriceBeaconID), common.Address{})
	}

	w, err := payment.NewWhitelister(l, deployer, registry, manager, tok, feed, payment.Settings{
		PriceUSD:    cfg.PaymentPriceUSD(),
		Period:      seconds(cfg.Payment.Period),
		MinDuration: seconds(cfg.Payment.MinDuration),
		MaxDuration: seconds(cfg.Payment.MaxDuration),
	}, log.Named("PAYMENT"))
	if err != nil {
		return httphandlers.Services{}, err
	}

	_, err = l.Execute(manager, func(tx *ledger.Tx) error {
		return w.SetChainAuthorizer(tx, cfg.Chain.Tag, requesters)
	})
	if err != nil {
		return httphandlers.Services{}, err
	}
	log.Infof("payments for chain %s extend requesters of %s", strconv.Quote(cfg.Chain.Tag), requesters.Address().Hex())

	return httphandlers.Services{
		Ledger:          l,
		Registry:        registry,
		Requesters:      requesters,
		Readers:         readers,
		Rrp:             r,
		Beacons:         beacons,
		Token:           tok,
		Whitelister:     w,
		AirnodeMnemonic: cfg.Airnode.Mnemonic,
	}, nil
}

func seconds(d time.Duration) uint64 {
	return uint64(d / time.Second)
}
