// Command gatekeeper runs the Gatekeeper core as a standalone process:
// a Kafka-backed transport feeds messaging.Dispatcher, a sealed store
// persists the master key across restarts, and a fixed-interval ticker
// drives the deterministic per-block tick. This wiring itself carries
// no deterministic-core semantics — it exists only to give
// gatekeeper.State a block clock and a transport, the way klaytn's
// cmd/kcn/main.go gives the node a CLI, flags, and a runtime.
package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/maybeTomorrow/gatekeeper/cryptoutil"
	"github.com/maybeTomorrow/gatekeeper/gatekeeper"
	"github.com/maybeTomorrow/gatekeeper/log"
	"github.com/maybeTomorrow/gatekeeper/messaging"
	"github.com/maybeTomorrow/gatekeeper/platform"
	"github.com/maybeTomorrow/gatekeeper/sealedstore"
	"github.com/maybeTomorrow/gatekeeper/tokenomic"
	kafkatransport "github.com/maybeTomorrow/gatekeeper/transport/kafka"
)

var logger = log.NewModuleLogger(log.Gatekeeper)

var (
	kafkaBrokersFlag = cli.StringFlag{
		Name:  "kafka-brokers",
		Usage: "comma-separated list of Kafka broker addresses",
		Value: "localhost:9092",
	}
	kafkaGroupFlag = cli.StringFlag{
		Name:  "kafka-group",
		Usage: "Kafka consumer group ID for the gatekeeper's inbound topics",
		Value: "gatekeeper",
	}
	storeBackendFlag = cli.StringFlag{
		Name:  "store-backend",
		Usage: "sealed master-key store backend: leveldb or badger",
		Value: "leveldb",
	}
	storeDirFlag = cli.StringFlag{
		Name:  "store-dir",
		Usage: "directory for the sealed master-key store",
		Value: "./gatekeeper-data",
	}
	blockIntervalFlag = cli.DurationFlag{
		Name:  "block-interval",
		Usage: "wall-clock interval between simulated block ticks",
		Value: 12 * time.Second,
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "gatekeeper"
	app.Usage = "off-chain Gatekeeper core: liveness, tokenomics, and key distribution for a mining-worker fleet"
	app.Flags = []cli.Flag{kafkaBrokersFlag, kafkaGroupFlag, storeBackendFlag, storeDirFlag, blockIntervalFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	seal, err := openSeal(c.String(storeBackendFlag.Name), c.String(storeDirFlag.Name))
	if err != nil {
		return fmt.Errorf("opening sealed store: %w", err)
	}
	defer seal.Close()

	masterKey, err := loadOrCreateMasterKey(seal)
	if err != nil {
		return fmt.Errorf("loading master key: %w", err)
	}

	brokers := strings.Split(c.String(kafkaBrokersFlag.Name), ",")
	kafkaCfg := kafkatransport.DefaultConfig(brokers, c.String(kafkaGroupFlag.Name))

	dispatcher := messaging.NewDispatcher()

	producer, err := kafkatransport.NewProducer(kafkaCfg)
	if err != nil {
		return fmt.Errorf("starting Kafka producer: %w", err)
	}
	defer producer.Close()

	consumer, err := kafkatransport.NewConsumer(kafkaCfg, dispatcher)
	if err != nil {
		return fmt.Errorf("starting Kafka consumer: %w", err)
	}
	defer consumer.Close()

	state := gatekeeper.New(masterKey, dispatcher, producer)
	state.SetTokenomicParams(tokenomic.DefaultParams())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := consumer.Run(ctx); err != nil {
			logger.Error("consumer stopped", "err", err)
		}
	}()

	runBlockLoop(ctx, state, c.Duration(blockIntervalFlag.Name))
	return nil
}

// sealCloser is the narrow subset of the two concrete sealedstore
// implementations main needs in addition to platform.Sealing.
type sealCloser interface {
	platform.Sealing
	Close() error
}

func openSeal(backend, dir string) (sealCloser, error) {
	switch backend {
	case "badger":
		return sealedstore.NewBadgerSeal(dir)
	case "leveldb":
		return sealedstore.NewLevelSeal(dir)
	default:
		return nil, fmt.Errorf("unknown store backend %q (want leveldb or badger)", backend)
	}
}

// loadOrCreateMasterKey unseals the persisted master key, or generates
// and seals a fresh one on first run. Generating the root secret reads
// crypto/rand; the beacon and IV generation derived from it are
// deterministic given this seed. (gatekeeper.State.ShareMasterKey also
// reads crypto/rand, for its per-dispatch random label.)
func loadOrCreateMasterKey(seal platform.Sealing) (cryptoutil.MasterKey, error) {
	data, ok, err := seal.Unseal()
	if err != nil {
		return cryptoutil.MasterKey{}, err
	}
	if ok {
		if len(data) != 32 {
			return cryptoutil.MasterKey{}, fmt.Errorf("sealed master key has unexpected length %d", len(data))
		}
		var seed [32]byte
		copy(seed[:], data)
		logger.Info("unsealed existing master key")
		return cryptoutil.NewMasterKey(seed), nil
	}

	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return cryptoutil.MasterKey{}, fmt.Errorf("generating master key: %w", err)
	}
	if err := seal.Seal(seed[:]); err != nil {
		return cryptoutil.MasterKey{}, fmt.Errorf("sealing new master key: %w", err)
	}
	logger.Info("generated and sealed new master key")
	return cryptoutil.NewMasterKey(seed), nil
}

// runBlockLoop drives ProcessMessages and EmitRandomNumber at a fixed
// wall-clock cadence. A real deployment would instead take block
// numbers and timestamps from the chain client it is paired with; this
// ticker exists only because that client is out of scope here.
func runBlockLoop(ctx context.Context, state *gatekeeper.State, interval time.Duration) {
	state.MasterPubkeyUploaded()
	state.RegisterOnChain()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var block uint32
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case t := <-ticker.C:
			block++
			nowMs := uint64(t.UnixMilli())
			state.ProcessMessages(block, nowMs)
			state.EmitRandomNumber(block)
		}
	}
}
