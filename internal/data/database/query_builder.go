package database

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ConditionType selects the SQL operator a Condition renders with.
type ConditionType string

const (
	Equal              ConditionType = "="
	NotEqual           ConditionType = "!="
	GreaterThan        ConditionType = ">"
	LessThan           ConditionType = "<"
	LessThanOrEqual    ConditionType = "<="
	GreaterThanOrEqual ConditionType = ">="
	ILike              ConditionType = "ILIKE"
	In                 ConditionType = "IN"
	Any                ConditionType = "ANY"
	Custom             ConditionType = "CUSTOM"
)

// Limit and Offset default to unset; WithLimit/WithOffset only accept
// non-negative values so -1 never reaches the query.
const (
	defaultLimit  = -1
	defaultOffset = -1
)

var (
	// Case-insensitive " AS " separator in a column spec.
	aliasSeparator = regexp.MustCompile(`(?i)\s+AS\s+`)
	// Positional placeholders ($1, $2, ...) inside raw condition SQL.
	placeholderPattern = regexp.MustCompile(`\$(\d+)`)
)

// Condition is one WHERE predicate. Field and Value render as
// "field OP $n" for the standard operators; Custom conditions carry
// their own SQL fragment instead.
type Condition struct {
	Field    string
	Type     ConditionType
	Value    any
	rawQuery *string
}

// WhereCond builds a standard field/operator/value condition.
func WhereCond(field string, condType ConditionType, value any) Condition {
	if condType == Custom {
		//nolint:forbidigo // panic prevents misuse; custom conditions must provide raw SQL via WhereRawCond.
		panic("Use WhereRawCond for Custom type")
	}
	return Condition{
		rawQuery: nil,
		Field:    field,
		Type:     condType,
		Value:    value,
	}
}

// WhereRawCond builds a condition from a raw SQL fragment with $1-style
// placeholders bound to params. Placeholders are renumbered when the
// fragment joins the full query.
func WhereRawCond(rawQuery string, params ...any) Condition {
	queryStr := rawQuery

	var value any
	switch len(params) {
	case 0:
		value = nil
	case 1:
		value = params[0]
	default:
		value = params
	}

	return Condition{
		Field:    "",
		Type:     Custom,
		rawQuery: &queryStr,
		Value:    value,
	}
}

// ListQueryOptions describes a list (or count) query over one table.
type ListQueryOptions struct {
	Table      string
	Columns    []string
	CountOnly  bool
	Conditions []Condition
	OrderBy    string
	OrderDir   string
	Limit      int
	Offset     int
}

type ListQueryOption func(*ListQueryOptions)

func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	options := &ListQueryOptions{
		Table:      table,
		Columns:    []string{},
		CountOnly:  false,
		Conditions: []Condition{},
		OrderBy:    "",
		OrderDir:   "",
		Limit:      defaultLimit,
		Offset:     defaultOffset,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithColumns sets the columns to select.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.Columns = cols
	}
}

// WithCondition adds a single condition.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.Conditions = append(o.Conditions, cond)
	}
}

// WithConditions sets the entire list of conditions.
func WithConditions(conds ...Condition) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.Conditions = conds
	}
}

// WithOrderBy sets the ordering column and direction.
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = column
		o.OrderDir = direction
	}
}

// WithLimit sets the limit. Accepts 0.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets the offset. Accepts 0.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

// WithCountOnly sets the query to count only.
func WithCountOnly() ListQueryOption {
	return func(o *ListQueryOptions) {
		o.CountOnly = true
	}
}

// BuildListQuery assembles a parameterized SELECT statement from the options.
func BuildListQuery(options *ListQueryOptions) (string, []any) {
	whereClause, whereArgs, paramCount := buildWhereClause(options.Conditions, 1)

	query := selectClause(options) + " FROM " + quoteIdent(options.Table)
	if whereClause != "" {
		query += " " + whereClause
	}

	tailClause, tailArgs := orderAndPageClause(options, paramCount)
	query += tailClause

	return query, append(whereArgs, tailArgs...)
}

func selectClause(options *ListQueryOptions) string {
	switch {
	case options.CountOnly:
		return "SELECT COUNT(*)"
	case len(options.Columns) == 0:
		return "SELECT *"
	}
	processed := make([]string, len(options.Columns))
	for i, col := range options.Columns {
		processed[i] = quoteColumnSpec(col)
	}
	return "SELECT " + strings.Join(processed, ", ")
}

// orderAndPageClause renders ORDER BY, LIMIT, and OFFSET. Count queries
// skip all three.
func orderAndPageClause(options *ListQueryOptions, paramCount int) (string, []any) {
	if options.CountOnly {
		return "", nil
	}

	var sb strings.Builder
	var args []any

	if options.OrderBy != "" {
		dir := strings.ToUpper(options.OrderDir)
		if dir != "ASC" && dir != "DESC" {
			dir = "ASC"
		}
		sb.WriteString(" ORDER BY " + quoteIdent(options.OrderBy) + " " + dir)
	}
	if options.Limit >= 0 {
		fmt.Fprintf(&sb, " LIMIT $%d", paramCount)
		args = append(args, options.Limit)
		paramCount++
	}
	if options.Offset >= 0 {
		fmt.Fprintf(&sb, " OFFSET $%d", paramCount)
		args = append(args, options.Offset)
	}
	return sb.String(), args
}

// quoteIdent quotes a single identifier.
func quoteIdent(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}

// quoteQualifiedIdent quotes each part of "table.column" or
// "schema.table.column" separately.
func quoteQualifiedIdent(ident string) string {
	return pgx.Identifier(strings.Split(ident, ".")).Sanitize()
}

// quoteColumnSpec quotes a column spec, preserving an optional alias:
// "column", "column AS alias", or "expr(...) AS alias".
func quoteColumnSpec(columnSpec string) string {
	parts := aliasSeparator.Split(columnSpec, 2)
	if len(parts) == 2 {
		expr := strings.TrimSpace(parts[0])
		alias := strings.TrimSpace(parts[1])
		return quoteColumnExpr(expr) + " AS " + quoteIdent(alias)
	}
	return quoteColumnExpr(columnSpec)
}

// quoteColumnExpr quotes plain and qualified identifiers. Anything
// containing parentheses is treated as a trusted SQL expression supplied
// by the repository layer (never by callers) and passes through unchanged.
func quoteColumnExpr(expr string) string {
	switch {
	case strings.Contains(expr, "("):
		return expr
	case strings.Contains(expr, "."):
		return quoteQualifiedIdent(expr)
	}
	return quoteIdent(expr)
}

// buildWhereClause renders the conditions into a WHERE clause, numbering
// placeholders from startParamIndex. Conditions that render to nothing
// (for example an IN over an empty slice) are skipped.
func buildWhereClause(inputConditions []Condition, startParamIndex int) (string, []any, int) {
	rendered := make([]string, 0, len(inputConditions))
	args := []any{}
	paramCount := startParamIndex

	for _, cond := range inputConditions {
		sql, condArgs, next := renderCondition(cond, paramCount)
		if sql == "" {
			continue
		}
		rendered = append(rendered, sql)
		args = append(args, condArgs...)
		paramCount = next
	}

	if len(rendered) == 0 {
		return "", args, paramCount
	}
	return "WHERE " + strings.Join(rendered, " AND "), args, paramCount
}

func renderCondition(cond Condition, paramCount int) (string, []any, int) {
	if cond.Type == Custom {
		return renderRawCondition(cond, paramCount)
	}
	if cond.Field == "" {
		return "", []any{}, paramCount
	}
	field := quoteIdent(cond.Field)

	switch cond.Type {
	case In:
		return renderSliceCondition(cond, field+" IN (%s)", paramCount)
	case Any:
		return renderSliceCondition(cond, field+" = ANY (ARRAY[%s])", paramCount)
	case Equal, NotEqual, GreaterThan, LessThan, LessThanOrEqual, GreaterThanOrEqual, ILike:
		sql := fmt.Sprintf("%s %s $%d", field, cond.Type, paramCount)
		return sql, []any{cond.Value}, paramCount + 1
	}
	return "", []any{}, paramCount
}

// renderSliceCondition expands a slice value into one placeholder per
// element and interpolates the joined list into format. An empty or
// non-slice value renders to nothing.
func renderSliceCondition(cond Condition, format string, paramCount int) (string, []any, int) {
	rv := reflect.ValueOf(cond.Value)
	if rv.Kind() != reflect.Slice || rv.Len() == 0 {
		return "", []any{}, paramCount
	}

	placeholders := make([]string, rv.Len())
	args := make([]any, rv.Len())
	for i := range rv.Len() {
		placeholders[i] = fmt.Sprintf("$%d", paramCount)
		args[i] = rv.Index(i).Interface()
		paramCount++
	}
	return fmt.Sprintf(format, strings.Join(placeholders, ", ")), args, paramCount
}

// renderRawCondition emits the raw SQL fragment with its placeholders
// renumbered to follow paramCount. The fragment itself is never quoted;
// only repository code supplies raw conditions.
func renderRawCondition(cond Condition, paramCount int) (string, []any, int) {
	if cond.rawQuery == nil || *cond.rawQuery == "" {
		return "", []any{}, paramCount
	}
	sql := *cond.rawQuery

	args := []any{}
	if cond.Value == nil {
		return sql, args, paramCount
	}

	params, ok := cond.Value.([]any)
	if !ok {
		params = []any{cond.Value}
	}

	// A fragment may reference the same placeholder more than once, and
	// numbers above 9 must not be split, so rewrite via regexp with a
	// local index map.
	idxMap := make(map[int]int)
	sql = placeholderPattern.ReplaceAllStringFunc(sql, func(m string) string {
		n, err := strconv.Atoi(m[1:])
		if err != nil {
			return m
		}
		if _, seen := idxMap[n]; !seen {
			if n < 1 || n > len(params) {
				return m
			}
			idxMap[n] = paramCount
			args = append(args, params[n-1])
			paramCount++
		}
		return fmt.Sprintf("$%d", idxMap[n])
	})

	return sql, args, paramCount
}
