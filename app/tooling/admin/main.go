// This program performs administrative tasks for the ledger.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/ledger/app/tooling/admin/commands"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/processor"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/disk"
	"github.com/ardanlabs/ledger/foundation/logger"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Args   conf.Args
		Ledger struct {
			DBPath  string `conf:"default:zblock/ledger.db"`
			Genesis string `conf:"default:zblock/genesis.json"`
			Workers int    `conf:"default:4"`
		}
		NameService struct {
			Folder string `conf:"default:zblock/accounts/"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	const prefix = "LEDGER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Debugw("startup", "config", out)

	// =========================================================================
	// Ledger Support

	// Every run is one unit of work in the logs.
	traceID := uuid.NewString()
	ev := logger.EvHandler(log, traceID)

	gen, err := genesis.Load(cfg.Ledger.Genesis)
	if err != nil {
		return fmt.Errorf("loading genesis: %w", err)
	}
	log.Infow("startup", "status", "genesis loaded", "chainID", gen.ChainID, "genesisDate", gen.Date, "feeMode", gen.FeeMode, "bonusPercent", gen.BonusPercent)

	ns, err := nameservice.New(cfg.NameService.Folder)
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	for account, name := range ns.Copy() {
		log.Debugw("startup", "status", "nameservice", "name", name, "account", account)
	}

	db, err := disk.New(disk.Config{
		DBPath:    cfg.Ledger.DBPath,
		EvHandler: ev,
	})
	if err != nil {
		return fmt.Errorf("opening ledger database: %w", err)
	}
	defer db.Close()

	reg, err := gen.Registry()
	if err != nil {
		return fmt.Errorf("building handler registry: %w", err)
	}

	proc, err := processor.New(processor.Config{
		Base:      db,
		Registry:  reg,
		Verifier:  gen.Verifier(),
		Workers:   cfg.Ledger.Workers,
		EvHandler: ev,
	})
	if err != nil {
		return fmt.Errorf("constructing processor: %w", err)
	}

	return processCommands(context.Background(), cfg.Args, log, gen, db, proc, ns)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(ctx context.Context, args conf.Args, log *zap.SugaredLogger, gen genesis.Genesis, db *disk.Disk, proc *processor.Processor, ns *nameservice.NameService) error {
	switch args.Num(0) {
	case "seed":
		if err := commands.Seed(ctx, log, db, gen); err != nil {
			return fmt.Errorf("seeding ledger: %w", err)
		}

	case "apply":
		if err := commands.Apply(ctx, log, proc, args.Num(1)); err != nil {
			return fmt.Errorf("applying batch: %w", err)
		}

	case "undo":
		if err := commands.Undo(ctx, log, proc, args.Num(1)); err != nil {
			return fmt.Errorf("undoing batch: %w", err)
		}

	case "bals":
		if err := commands.Balances(ctx, db, ns, args.Num(1)); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}

	default:
		fmt.Println("seed:  reset the ledger to the genesis balances")
		fmt.Println("apply: apply the batch of transactions in the file")
		fmt.Println("undo:  undo the batch of transactions in the file")
		fmt.Println("bals:  print the balances, optionally for one account")
		fmt.Println("provide a command to get more help.")
		return commands.ErrHelp
	}

	return nil
}
