package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tvumtech/lumen/internal/config"
	"github.com/tvumtech/lumen/internal/workspace/api"
	"github.com/tvumtech/lumen/internal/workspace/auth"
	"github.com/tvumtech/lumen/internal/workspace/entity"
	"github.com/tvumtech/lumen/internal/workspace/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	// 初始化依赖
	tokens := auth.NewStore(cfg.Auth.TokenFile, zapLogger)
	client := api.NewClient(cfg.API.BaseURL, tokens, cfg.API.Timeout, zapLogger)
	notifier := newConsoleNotifier()
	services := service.NewServices(client, notifier, stdinConfirmer{}, zapLogger)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	if err := run(ctx, services, tokens, os.Args[1], os.Args[2:]); err != nil {
		if apiErr, ok := api.AsAPIError(err); ok && apiErr.StatusCode >= 500 {
			fmt.Fprintln(os.Stderr, "server error, please try again later")
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, svc *service.Services, tokens *auth.Store, cmd string, args []string) error {
	switch cmd {
	case "version":
		fmt.Printf("lumen workspace %s (built %s)\n", Version, BuildTime)
		return nil
	case "login":
		return cmdLogin(tokens, args)
	case "projects":
		return cmdProjects(ctx, svc)
	case "boq":
		return cmdBOQ(ctx, svc, args)
	case "direct":
		return cmdDirect(ctx, svc, args)
	case "import":
		return cmdImport(ctx, svc, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: workspace <command> [args]

Commands:
  login <token>                       store an access token
  projects                            list projects
  boq versions <project-id>           list BOQ versions for a project
  boq generate <project-id>           generate a new BOQ version
  boq show <boq-id>                   show a BOQ with items grouped by area
  boq margin <boq-id> <pct>           apply a margin percentage (draft only)
  boq price <boq-id> <item-id> <amt>  override a line unit price (draft only)
  boq approve <boq-id>                lock a BOQ version (irreversible)
  boq export <boq-id> <pdf|excel>     print the export download URL
  direct list <project-id>            list direct BOQ items
  direct add <project-id> <type> <master-id> [qty]
  direct remove <item-id>             remove a direct BOQ item
  import <project-id> <file>          bulk import items from .xlsx or .csv
  version                             print version`)
}

func cmdLogin(tokens *auth.Store, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: login <token>")
	}
	if err := tokens.Set(args[0]); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	fmt.Println("token stored")
	return nil
}

func cmdProjects(ctx context.Context, svc *service.Services) error {
	projects, err := svc.Client().ListProjects(ctx)
	if err != nil {
		return err
	}
	for _, p := range projects {
		mode := "area-wise"
		if p.IsDirectBOQ() {
			mode = "direct-boq"
		}
		fmt.Printf("%6d  %-30s  %-12s  %s\n", p.ID, p.Name, mode, p.ClientName)
	}
	return nil
}

func cmdBOQ(ctx context.Context, svc *service.Services, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: boq <versions|generate|show|margin|price|approve|export> <id> ...")
	}
	sub := args[0]
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[1])
	}

	switch sub {
	case "versions":
		versions, err := svc.BOQ.Versions(ctx, id)
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			fmt.Println("no BOQ versions yet")
			return nil
		}
		for _, b := range versions {
			fmt.Printf("%6d  v%-3d  %-8s  %s\n", b.Key(), b.Version, b.Status, b.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil

	case "generate":
		boq, err := svc.BOQ.Generate(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("generated BOQ %d (version %d)\n", boq.Key(), boq.Version)
		return nil

	case "show":
		view, err := svc.BOQ.Load(ctx, id)
		if err != nil {
			return err
		}
		printBOQ(view)
		return nil

	case "margin":
		if len(args) < 3 {
			return fmt.Errorf("usage: boq margin <boq-id> <pct>")
		}
		pct, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid margin %q", args[2])
		}
		view, err := svc.BOQ.Load(ctx, id)
		if err != nil {
			return err
		}
		if err := svc.BOQ.ApplyMargin(ctx, view, pct); err != nil {
			return err
		}
		printBOQ(view)
		return nil

	case "price":
		if len(args) < 4 {
			return fmt.Errorf("usage: boq price <boq-id> <item-id> <amount>")
		}
		itemID, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid item id %q", args[2])
		}
		amount, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[3])
		}
		view, err := svc.BOQ.Load(ctx, id)
		if err != nil {
			return err
		}
		item, err := svc.BOQ.OverridePrice(ctx, view, itemID, amount)
		if err != nil {
			return err
		}
		fmt.Printf("item %d: unit %s, final %s\n", item.ID, inr(item.UnitPrice), inr(item.FinalPrice))
		return nil

	case "approve":
		view, err := svc.BOQ.Load(ctx, id)
		if err != nil {
			return err
		}
		return svc.BOQ.Approve(ctx, view)

	case "export":
		if len(args) < 3 {
			return fmt.Errorf("usage: boq export <boq-id> <pdf|excel>")
		}
		view, err := svc.BOQ.Load(ctx, id)
		if err != nil {
			return err
		}
		u, err := svc.BOQ.ExportURL(view, args[2])
		if err != nil {
			return err
		}
		fmt.Println(u)
		return nil
	}
	return fmt.Errorf("unknown boq subcommand %q", sub)
}

func printBOQ(view *service.BOQView) {
	fmt.Printf("BOQ %d  version %d  status %s\n", view.BOQ.Key(), view.BOQ.Version, view.BOQ.Status)
	for _, group := range service.GroupByArea(view.Items) {
		fmt.Printf("\n  %s\n", group.AreaName)
		for _, item := range group.Items {
			flag := " "
			if item.PriceOverridden() {
				flag = "*"
			}
			fmt.Printf("  %s %6d  %-40s x%-4d  unit %12s  final %12s\n",
				flag, item.ID, item.Reference(), item.Quantity, inr(item.UnitPrice), inr(item.FinalPrice))
		}
		fmt.Printf("    subtotal: %s\n", inr(group.Subtotal))
	}
	fmt.Printf("\n  total: %s\n", inr(view.Total()))
}

func cmdDirect(ctx context.Context, svc *service.Services, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: direct <list|add|remove> ...")
	}
	sub := args[0]
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[1])
	}

	switch sub {
	case "list":
		items, err := svc.Save.ListDirectItems(ctx, id)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("no items")
			return nil
		}
		for _, item := range items {
			fmt.Printf("%6d  %-10s  master %-6d  x%-4d  %s\n",
				item.ID, item.ItemType, item.MasterID, item.Quantity, inr(item.TotalPrice))
		}
		return nil

	case "add":
		if len(args) < 4 {
			return fmt.Errorf("usage: direct add <project-id> <type> <master-id> [qty]")
		}
		masterID, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid master id %q", args[3])
		}
		qty := 1
		if len(args) > 4 {
			qty = service.ClampQuantity(args[4])
		}
		item := entity.DirectBOQItem{
			ProjectID: id,
			ItemType:  strings.ToUpper(args[2]),
			MasterID:  masterID,
			Quantity:  qty,
		}
		created, err := svc.Save.AddDirectItem(ctx, item)
		if err != nil {
			return err
		}
		fmt.Printf("added item %d\n", created.ID)
		return nil

	case "remove":
		return svc.Save.RemoveDirectItem(ctx, id)
	}
	return fmt.Errorf("unknown direct subcommand %q", sub)
}

func cmdImport(ctx context.Context, svc *service.Services, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: import <project-id> <file>")
	}
	projectID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid project id %q", args[0])
	}
	f, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[1], err)
	}
	defer f.Close()

	var result *service.ImportResult
	switch strings.ToLower(filepath.Ext(args[1])) {
	case ".xlsx":
		result, err = svc.Import.ImportExcel(ctx, projectID, f)
	case ".csv":
		result, err = svc.Import.ImportCSV(ctx, projectID, f)
	default:
		return fmt.Errorf("unsupported file type %q (use .xlsx or .csv)", filepath.Ext(args[1]))
	}
	if err != nil {
		return err
	}
	fmt.Printf("imported %d items, %d failed\n", result.Success, result.Failed)
	for _, msg := range result.Errors {
		fmt.Println(" ", msg)
	}
	return nil
}

// inr 印度卢比格式化展示
func inr(amount float64) string {
	return fmt.Sprintf("₹%.2f", amount)
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

// consoleNotifier 终端toast：提示打到stderr，不混入命令输出
type consoleNotifier struct{}

func newConsoleNotifier() consoleNotifier { return consoleNotifier{} }

func (consoleNotifier) Success(msg string) { fmt.Fprintln(os.Stderr, "✓", msg) }
func (consoleNotifier) Warning(msg string) { fmt.Fprintln(os.Stderr, "!", msg) }
func (consoleNotifier) Error(msg string)   { fmt.Fprintln(os.Stderr, "✗", msg) }
func (consoleNotifier) Info(msg string)    { fmt.Fprintln(os.Stderr, "·", msg) }

// stdinConfirmer 终端确认
type stdinConfirmer struct{}

func (stdinConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
