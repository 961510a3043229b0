package gokeyset

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const _tracerName = "github.com/Alp4ka/gokeyset"

// PagingRequest holds Relay-style paging arguments. Empty cursors and nil
// sizes mean "not set", so an explicit zero size can be told apart from an
// omitted one.
//
// Legal combinations: First/After (forward), Last/Before (backward), and
// either size alone.
type PagingRequest struct {
	After  string `json:"after,omitempty"`
	Before string `json:"before,omitempty"`
	First  *int   `json:"first,omitempty"`
	Last   *int   `json:"last,omitempty"`
}

// IsBackward reports whether the request reads towards the start of the
// dataset.
func (r PagingRequest) IsBackward() bool {
	return r.Before != "" || (r.Last != nil && r.After == "")
}

// Connection is a page of nodes with a total count and cursors per edge.
// Edges are always in the declared ordering, whatever the paging direction.
type Connection[T any] struct {
	Count    int64     `json:"count"`
	PageInfo PageInfo  `json:"pageInfo"`
	Edges    []Edge[T] `json:"edges"`
}

// PageInfo - StartCursor and EndCursor are nil only when there are no edges.
type PageInfo struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *string `json:"startCursor"`
	EndCursor       *string `json:"endCursor"`
}

type Edge[T any] struct {
	Node   T      `json:"node"`
	Cursor string `json:"cursor"`
}

// Nodes returns edge nodes in order.
func (c *Connection[T]) Nodes() []T {
	if c == nil {
		return nil
	}

	ret := make([]T, 0, len(c.Edges))
	for _, edge := range c.Edges {
		ret = append(ret, edge.Node)
	}

	return ret
}

type options struct {
	defaultSize int
	limit       int
	codec       *Codec
	logger      logrus.FieldLogger
	snapshot    *sql.TxOptions
	tracer      trace.Tracer
}

type Option func(*options)

// WithPageSize sets the size used when neither first nor last is given, and
// the largest size a request may ask for.
func WithPageSize(defaultSize, limit int) Option {
	return func(o *options) {
		o.defaultSize = defaultSize
		o.limit = limit
	}
}

// WithCodec sets the codec used to decode request cursors and mint edge
// cursors. DefaultCodec is used otherwise.
func WithCodec(codec *Codec) Option {
	return func(o *options) {
		if codec != nil {
			o.codec = codec
		}
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSnapshot runs the count and the page query in one read-only
// REPEATABLE READ transaction, so Count and Edges observe the same data.
// Without it they are read in two independent statements. SQLite ignores the
// isolation level and serializes the transaction instead.
func WithSnapshot() Option {
	return func(o *options) {
		o.snapshot = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

func newOptions(opts ...Option) *options {
	o := &options{
		defaultSize: DefaultPageSize,
		limit:       DefaultPageLimit,
		codec:       DefaultCodec,
		logger:      logrus.StandardLogger(),
		tracer:      otel.Tracer(_tracerName),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Paginate reads one page of the filtered dataset db ordered by orderings
// and wraps it into a Connection.
//
// db must carry the filter only (no ORDER BY, LIMIT or OFFSET). Rows are
// scanned into M, presented as T, and every edge gets a cursor built from the
// row's own ordering values via getters.
//
// A rejected request returns a *PaginationError. Any other error comes from
// the database or from a misconfigured call and is returned wrapped.
func Paginate[M, T any](
	ctx context.Context,
	db *gorm.DB,
	orderings Orderings,
	getters Getters[M],
	present func(M) T,
	req PagingRequest,
	opts ...Option,
) (*Connection[T], error) {
	o := newOptions(opts...)

	ctx, span := o.tracer.Start(ctx, "gokeyset.Paginate")
	defer span.End()

	log := o.logger.WithFields(logrus.Fields{
		"after":  req.After,
		"before": req.Before,
	})

	if err := orderings.validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid orderings")
		return nil, errors.Wrap(err, "cannot paginate")
	}

	pager, perr := newRequestPager(req, orderings, o)
	if perr != nil {
		log.WithField("code", perr.Code).Info("pagination request rejected")
		span.SetAttributes(attribute.String("gokeyset.error_code", string(perr.Code)))
		return nil, perr
	}

	span.SetAttributes(
		attribute.Int("gokeyset.size", pager.GetLimit()),
		attribute.Bool("gokeyset.backward", pager.IsBackward()),
		attribute.Bool("gokeyset.anchored", pager.IsAnchored()),
	)

	var (
		count int64
		page  Page[M]
	)

	read := func(tx *gorm.DB) error {
		var err error
		count, page, err = readPage[M](tx, pager)
		return err
	}

	base := db.WithContext(ctx)
	var err error
	if o.snapshot != nil {
		err = base.Transaction(read, o.snapshot)
	} else {
		err = read(base)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, err
	}

	conn := &Connection[T]{
		Count: count,
		PageInfo: PageInfo{
			HasNextPage:     page.HasNext,
			HasPreviousPage: page.HasPrevious,
		},
		Edges: make([]Edge[T], 0, len(page.Items)),
	}

	for _, item := range page.Items {
		cursor, err := CursorOf(item, orderings, getters)
		if err != nil {
			return nil, errors.Wrap(err, "cannot build edge cursor")
		}

		token, err := o.codec.Encode(cursor)
		if err != nil {
			return nil, errors.Wrap(err, "cannot encode edge cursor")
		}

		conn.Edges = append(conn.Edges, Edge[T]{Node: present(item), Cursor: token})
	}

	if len(conn.Edges) > 0 {
		start, end := conn.Edges[0].Cursor, conn.Edges[len(conn.Edges)-1].Cursor
		conn.PageInfo.StartCursor = &start
		conn.PageInfo.EndCursor = &end
	}

	log.WithFields(logrus.Fields{
		"size":     pager.GetLimit(),
		"backward": pager.IsBackward(),
		"count":    count,
		"edges":    len(conn.Edges),
	}).Debug("page assembled")

	return conn, nil
}

// newRequestPager validates paging arguments in a fixed order and turns them
// into a Pager. The first failed check wins.
func newRequestPager(req PagingRequest, orderings Orderings, o *options) (*Pager, *PaginationError) {
	if req.After != "" && req.Before != "" {
		return nil, newPaginationError(CodePagingDirectionConflict,
			"Results can only be fetched before OR after a cursor, not both.")
	}

	if req.After != "" && req.Last != nil {
		return nil, newPaginationError(CodePageDirectionConflict,
			"Results can only be fetched first-after or last-before.")
	}

	size := o.defaultSize
	switch {
	case req.First != nil:
		size = *req.First
	case req.Last != nil:
		size = *req.Last
	}

	if !IsValidPageSize(size, o.limit) {
		return nil, newPaginationError(CodePageSizeInvalid, pageSizeRangeMessage(o.limit))
	}

	if req.Before != "" && req.First != nil {
		return nil, newPaginationError(CodePageDirectionConflict,
			"Results can only be fetched first-after or last-before.")
	}

	if req.First != nil && req.Last != nil {
		return nil, newPaginationError(CodePageDirectionConflict,
			"Results can only be fetched with first OR last, not both.")
	}

	token := req.After
	if req.IsBackward() {
		token = req.Before
	}

	cursor, err := o.codec.Decode(token, orderings)
	if err != nil {
		return nil, newPaginationError(CodeCursorInvalid, "Cursor could not be deserialized.")
	}

	pager := NewPager().
		WithSubstitutedSort(orderings...).
		WithLimit(size).
		WithCursor(cursor)

	if req.IsBackward() {
		pager = pager.Backward()
	}

	return pager, nil
}

// readPage counts the filtered rows and reads one page of them.
func readPage[M any](db *gorm.DB, pager *Pager) (int64, Page[M], error) {
	var count int64
	if err := db.Count(&count).Error; err != nil {
		return 0, Page[M]{}, errors.Wrap(err, "cannot count rows")
	}

	query, err := pager.Paginate(db)
	if err != nil {
		return 0, Page[M]{}, err
	}

	var rows []M
	if err = query.Find(&rows).Error; err != nil {
		return 0, Page[M]{}, errors.Wrap(err, "cannot read page")
	}

	return count, AssemblePage(pager, rows), nil
}
