package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"sales-rfm/pkg/models"

	"github.com/go-sql-driver/mysql"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
)

// Column names of the order dataset, shared by the CSV header and the SQL table.
const (
	ColOrderID     = "order_id"
	ColOrderItemID = "order_item_id"
	ColCustomerID  = "customer_id"
	ColPurchasedAt = "order_purchase_timestamp"
	ColPayment     = "payment_value"
	ColPaymentType = "payment_type"
	ColState       = "customer_state"
	ColCategory    = "product_category_name_english"
)

var columns = []string{
	ColOrderID, ColOrderItemID, ColCustomerID, ColPurchasedAt,
	ColPayment, ColPaymentType, ColState, ColCategory,
}

var (
	ErrInvalidTable  = errors.New("invalid table name")
	ErrMissingColumn = errors.New("missing column")
	ErrBadTimestamp  = errors.New("invalid order_purchase_timestamp")
	ErrBadAmount     = errors.New("invalid payment_value")
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Options controls a load.
type Options struct {
	Progress       bool      // render a progress bar while loading
	ProgressWriter io.Writer // defaults to os.Stderr
}

func (o Options) bar(total int64, description string, bytes bool) *progressbar.ProgressBar {
	w := o.ProgressWriter
	if w == nil {
		w = os.Stderr
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(bytes),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(o.Progress),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

// Pool sizes the connection pool of the order database. Zero values keep the
// database/sql defaults.
type Pool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to the order database. dsn is either a mysql:// or mariadb://
// URL or a native driver DSN. The returned string is the driver DSN in use.
func Open(dsn string, pool Pool) (*sql.DB, string, error) {
	cfg, err := driverConfig(dsn)
	if err != nil {
		return nil, "", err
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, "", err
	}
	db := sql.OpenDB(connector)
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return db, cfg.FormatDSN(), nil
}

// driverConfig resolves dsn into a driver config that scans timestamps as UTC
// time.Time values.
func driverConfig(dsn string) (*mysql.Config, error) {
	var cfg *mysql.Config
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse dsn: %w", err)
		}
		cfg = mysql.NewConfig()
		if u.User != nil {
			cfg.User = u.User.Username()
			cfg.Passwd, _ = u.User.Password()
		}
		cfg.Net = "tcp"
		cfg.Addr = u.Host
		cfg.DBName = strings.TrimPrefix(u.Path, "/")
		if cfg.User == "" || cfg.Addr == "" || cfg.DBName == "" {
			return nil, errors.New("incomplete dsn: user, host and database are required")
		}
		cfg.InterpolateParams = true
	} else {
		parsed, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse dsn: %w", err)
		}
		cfg = parsed
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg, nil
}

// LoadOrders reads every row of table into memory. The load fails on the first
// row without a purchase timestamp.
func LoadOrders(ctx context.Context, db *sql.DB, table string, opts Options) ([]models.OrderRecord, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}

	total := int64(-1)
	if opts.Progress {
		if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&total); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
	}
	bar := opts.bar(total, "loading "+table, false)
	defer bar.Finish()

	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), table)
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []models.OrderRecord
	for rows.Next() {
		var (
			orderID, itemID, customerID  sql.NullString
			paymentType, state, category sql.NullString
			purchasedAt                  sql.NullTime
			payment                      decimal.NullDecimal
		)
		if err := rows.Scan(&orderID, &itemID, &customerID, &purchasedAt,
			&payment, &paymentType, &state, &category); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(out)+1, err)
		}
		if !purchasedAt.Valid {
			return nil, fmt.Errorf("row %d (order %s): %w", len(out)+1, orderID.String, ErrBadTimestamp)
		}
		rec := models.OrderRecord{
			OrderID:           orderID.String,
			OrderItemID:       itemID.String,
			CustomerID:        customerID.String,
			PurchaseTimestamp: purchasedAt.Time.UTC(),
			PaymentType:       paymentType.String,
			CustomerState:     state.String,
			Category:          category.String,
		}
		if payment.Valid {
			rec.PaymentValue = payment.Decimal
		}
		out = append(out, rec)
		_ = bar.Add(1)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
