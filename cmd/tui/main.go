package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/DorukKorkmaz/crypto-backtest/internal/config"
	"github.com/DorukKorkmaz/crypto-backtest/internal/strategy"
)

const defaultConfigPath = "configs/atr_cross.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== Backtest Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit broker settings")
		fmt.Println("3) Edit strategy")
		fmt.Println("4) Edit instruments")
		fmt.Println("5) Save config")
		fmt.Println("6) Launch sweep")
		fmt.Println("7) Launch single backtest")
		fmt.Println("8) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editBroker(reader, cfg)
		case "3":
			editStrategy(reader, cfg)
		case "4":
			editInstruments(reader, cfg)
		case "5":
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(os.Stderr, "not saved: %v\n", err)
			} else if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "6":
			launch(reader, "./cmd/sweep")
		case "7":
			launch(reader, "./cmd/backtest")
		case "8":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Strategy: %s %s\n", cfg.Strategy.Name, cfg.Fixed())
	fmt.Printf("Starting cash: %.2f | commission: %.4f | sizing: %.0f%%\n", cfg.Broker.StartingCash, cfg.Broker.Commission, cfg.Broker.Percent)
	fmt.Printf("Per-trade notional cap: %.2f\n", cfg.Broker.MaxNotionalPerTrade)
	fmt.Printf("Instruments (%d): %s\n", len(cfg.Data.Symbols), strings.Join(cfg.Data.Symbols, ", "))
	fmt.Printf("Data: %s\n", filepath.Join(cfg.Data.Dir, cfg.Data.Pattern))
	for _, r := range cfg.Sweep.Ranges {
		vals, err := r.Expand()
		if err != nil {
			fmt.Printf("Range %s: %v\n", r.Name, err)
			continue
		}
		fmt.Printf("Range %s: %d values\n", r.Name, len(vals))
	}
	fmt.Println("Constraints:", strings.Join(cfg.Sweep.Constraints, "; "))
	if cfg.Sweep.Schedule != "" {
		fmt.Println("Schedule:", cfg.Sweep.Schedule)
	}
}

func editBroker(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Broker ---")
	cfg.Broker.StartingCash = promptFloat(reader, "Starting cash", cfg.Broker.StartingCash)
	cfg.Broker.Commission = promptPercent(reader, "Commission (%)", cfg.Broker.Commission)
	cfg.Broker.Percent = promptFloat(reader, "Cash spent per buy (%)", cfg.Broker.Percent)
	cfg.Broker.MaxNotionalPerTrade = promptFloat(reader, "Max notional per trade (0 = off)", cfg.Broker.MaxNotionalPerTrade)
}

func editStrategy(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Strategy ---")
	fmt.Println("Known:", strings.Join(strategy.Names(), ", "))
	fmt.Printf("Strategy [%s]: ", cfg.Strategy.Name)
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		name := strings.TrimSpace(line)
		if _, err := strategy.Lookup(name); err != nil {
			fmt.Printf("%v, keeping %s\n", err, cfg.Strategy.Name)
		} else {
			cfg.Strategy.Name = name
		}
	}

	keys := make([]string, 0, len(cfg.Strategy.Params))
	for k := range cfg.Strategy.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s = %s\n", k, cfg.Strategy.Params[k])
	}
	fmt.Print("Set params as name=value comma-separated, name= to remove (blank to keep): ")
	line, _ := reader.ReadString('\n')
	for _, part := range strings.Split(strings.TrimSpace(line), ",") {
		name, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		if cfg.Strategy.Params == nil {
			cfg.Strategy.Params = make(map[string]string)
		}
		name, val = strings.TrimSpace(name), strings.TrimSpace(val)
		if val == "" {
			delete(cfg.Strategy.Params, name)
			continue
		}
		cfg.Strategy.Params[name] = val
	}
	if _, err := strategy.Build(cfg.Strategy.Name, cfg.Fixed()); err != nil {
		fmt.Printf("warning: %v\n", err)
	}
}

func editInstruments(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Instruments ---")
	fmt.Printf("Current: %s\n", strings.Join(cfg.Data.Symbols, ", "))
	fmt.Print("Enter symbols comma-separated (blank to keep): ")
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		cfg.Data.Symbols = nil
		for _, p := range strings.Split(strings.TrimSpace(line), ",") {
			if trimmed := strings.ToUpper(strings.TrimSpace(p)); trimmed != "" {
				cfg.Data.Symbols = append(cfg.Data.Symbols, trimmed)
			}
		}
	}
}

func launch(reader *bufio.Reader, pkg string) {
	fmt.Printf("Launching %s (Ctrl+C to stop)...\n", pkg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", pkg, "-config", locateConfig())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to stop and return to menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.4g]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.4g\n", current)
		return current
	}
	return val
}

func promptPercent(reader *bufio.Reader, label string, current float64) float64 {
	pct := promptFloat(reader, label, current*100)
	return pct / 100
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func saveConfig(cfg *config.Config) error {
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	if p := os.Getenv("BACKTEST_CONFIG"); p != "" {
		return filepath.Clean(p)
	}
	return filepath.Clean(defaultConfigPath)
}
