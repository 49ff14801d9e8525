package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"
	messages "github.com/cucumber/messages/go/v21"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/insights/internal/application/adapter"
	"github.com/finance-tracker/insights/internal/integration/persistence/model"
)

// registerLedgerSteps registers the steps that seed ledger rows.
func registerLedgerSteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^"([^"]*)" has an? (\w+) account "([^"]*)" with opening balance "([^"]*)"$`, hasAccount)
	ctx.Step(`^the account "([^"]*)" is shared with "([^"]*)"$`, theAccountIsSharedWith)
	ctx.Step(`^"([^"]*)" has an? (expense|income|payment|savings) category "([^"]*)"$`, hasCategory)
	ctx.Step(`^"([^"]*)" has a category group "([^"]*)" with categories "([^"]*)"$`, hasCategoryGroup)
	ctx.Step(`^"([^"]*)" has a budget of "([^"]*)" for category "([^"]*)" in "([^"]*)"$`, hasCategoryBudget)
	ctx.Step(`^"([^"]*)" has the transactions:$`, hasTheTransactions)
	ctx.Step(`^the transactions "([^"]*)" and "([^"]*)" are linked as a (transfer|payment)$`, theTransactionsAreLinked)
	ctx.Step(`^a ledger change is published for "([^"]*)"$`, aLedgerChangeIsPublishedFor)
}

// user returns the id behind a user name, assigning one on first use.
func (tc *TestContext) user(name string) uuid.UUID {
	if id, ok := tc.users[name]; ok {
		return id
	}
	id := uuid.New()
	tc.users[name] = id
	return id
}

func parseDay(value string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return d.Add(12 * time.Hour), nil
}

func hasAccount(ctx context.Context, owner, accountType, name, opening string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	balance, err := decimal.NewFromString(opening)
	if err != nil {
		return fmt.Errorf("invalid opening balance %q: %w", opening, err)
	}

	account := &model.AccountModel{
		ID:             uuid.New(),
		OwnerID:        tc.user(owner),
		Name:           name,
		Type:           accountType,
		OpeningBalance: balance,
	}
	if err := tc.db.DbConn.Create(account).Error; err != nil {
		return err
	}
	tc.accounts[name] = account.ID
	return nil
}

func theAccountIsSharedWith(ctx context.Context, name, user string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	accountID, ok := tc.accounts[name]
	if !ok {
		return fmt.Errorf("unknown account %q", name)
	}
	return tc.db.DbConn.Create(&model.AccountShareModel{
		ID:        uuid.New(),
		AccountID: accountID,
		UserID:    tc.user(user),
	}).Error
}

func hasCategory(ctx context.Context, owner, kind, title string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	category := &model.CategoryModel{
		ID:      uuid.New(),
		OwnerID: tc.user(owner),
		Title:   title,
		Kind:    kind,
	}
	if err := tc.db.DbConn.Create(category).Error; err != nil {
		return err
	}
	tc.categories[title] = category.ID
	return nil
}

func hasCategoryGroup(ctx context.Context, owner, title, members string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	group := &model.CategoryGroupModel{
		ID:      uuid.New(),
		OwnerID: tc.user(owner),
		Title:   title,
	}
	for i, name := range strings.Split(members, ",") {
		name = strings.TrimSpace(name)
		categoryID, ok := tc.categories[name]
		if !ok {
			return fmt.Errorf("unknown category %q", name)
		}
		group.Members = append(group.Members, model.CategoryGroupMemberModel{
			ID:         uuid.New(),
			CategoryID: categoryID,
			Position:   i + 1,
			Active:     true,
		})
	}
	if err := tc.db.DbConn.Create(group).Error; err != nil {
		return err
	}
	tc.groups[title] = group.ID
	return nil
}

func hasCategoryBudget(ctx context.Context, owner, amount, category, month string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	categoryID, ok := tc.categories[category]
	if !ok {
		return fmt.Errorf("unknown category %q", category)
	}
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return fmt.Errorf("invalid month %q: %w", month, err)
	}

	return tc.db.DbConn.Create(&model.BudgetModel{
		ID:         uuid.New(),
		OwnerID:    tc.user(owner),
		CategoryID: &categoryID,
		Amount:     value,
		Month:      int(start.Month()),
		Year:       start.Year(),
	}).Error
}

// hasTheTransactions seeds rows from a table with the columns account,
// category, title, amount and date. An empty category leaves the row
// uncategorized.
func hasTheTransactions(ctx context.Context, owner string, table *godog.Table) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	if len(table.Rows) < 2 {
		return fmt.Errorf("expected a header and at least one transaction")
	}

	columns := make(map[string]int)
	for i, cell := range table.Rows[0].Cells {
		columns[cell.Value] = i
	}
	for _, required := range []string{"account", "title", "amount", "date"} {
		if _, ok := columns[required]; !ok {
			return fmt.Errorf("missing column %q", required)
		}
	}
	cell := func(row *messages.PickleTableRow, column string) string {
		i, ok := columns[column]
		if !ok {
			return ""
		}
		return strings.TrimSpace(row.Cells[i].Value)
	}

	for _, row := range table.Rows[1:] {
		accountID, ok := tc.accounts[cell(row, "account")]
		if !ok {
			return fmt.Errorf("unknown account %q for %s", cell(row, "account"), owner)
		}
		amount, err := decimal.NewFromString(cell(row, "amount"))
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", cell(row, "amount"), err)
		}
		date, err := parseDay(cell(row, "date"))
		if err != nil {
			return err
		}

		transaction := &model.TransactionModel{
			ID:                   uuid.New(),
			AccountID:            accountID,
			Title:                cell(row, "title"),
			Amount:               amount,
			Date:                 date,
			FactorInCalculations: true,
			Active:               true,
		}
		if name := cell(row, "category"); name != "" {
			categoryID, ok := tc.categories[name]
			if !ok {
				return fmt.Errorf("unknown category %q", name)
			}
			transaction.CategoryID = &categoryID
		}
		if err := tc.db.DbConn.Create(transaction).Error; err != nil {
			return err
		}
		tc.transactions[transaction.Title] = transaction.ID
	}
	return nil
}

func theTransactionsAreLinked(ctx context.Context, origin, dest, kind string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	originID, ok := tc.transactions[origin]
	if !ok {
		return fmt.Errorf("unknown transaction %q", origin)
	}
	destID, ok := tc.transactions[dest]
	if !ok {
		return fmt.Errorf("unknown transaction %q", dest)
	}

	originFlag, destFlag := "is_transfer_origin", "is_transfer_dest"
	if kind == "payment" {
		originFlag, destFlag = "is_payment_origin", "is_payment_dest"
	}

	conn := tc.db.DbConn.Model(&model.TransactionModel{})
	if err := conn.Where("id = ?", originID).Updates(map[string]any{
		originFlag:               true,
		"related_transaction_id": destID,
	}).Error; err != nil {
		return err
	}
	return tc.db.DbConn.Model(&model.TransactionModel{}).Where("id = ?", destID).Updates(map[string]any{
		destFlag:                 true,
		"related_transaction_id": originID,
	}).Error
}

func aLedgerChangeIsPublishedFor(ctx context.Context, user string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	return tc.publisher.Publish(ctx, adapter.LedgerChange{
		UserID:    tc.user(user),
		ChangedAt: time.Now().UTC(),
	})
}
