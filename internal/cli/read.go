package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/firedoc/internal/codec"
	"github.com/roach88/firedoc/internal/path"
	"github.com/roach88/firedoc/internal/query"
)

// ListOutput is an ordered document list.
type ListOutput struct {
	Documents      []DocumentOutput `json:"documents"`
	showProperties bool
}

func (l ListOutput) RenderText(w io.Writer) {
	for _, d := range l.Documents {
		if l.showProperties {
			d.RenderText(w)
			continue
		}
		fmt.Fprintln(w, d.Reference)
	}
}

func listOutput(docs []query.Document, showProperties bool) (ListOutput, error) {
	out := ListOutput{Documents: make([]DocumentOutput, 0, len(docs)), showProperties: showProperties}
	for _, doc := range docs {
		d, err := documentOutput(doc)
		if err != nil {
			return ListOutput{}, WrapExitError(ExitCommandError, "encode failed", err)
		}
		out.Documents = append(out.Documents, d)
	}
	return out, nil
}

// ListOptions holds flags shared by the read commands.
type ListOptions struct {
	*RootOptions
	Properties bool
}

func (o *ListOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&o.Properties, "properties", "p", false, "print properties next to references (text format)")
}

// parseCollectionPath splits /users/1/posts into its parent and ID.
func parseCollectionPath(arg string) (path.Path, string, error) {
	p, err := path.Parse(arg)
	if err != nil {
		return path.Path{}, "", WrapExitError(ExitCommandError, "invalid collection", err)
	}
	if p.IsRoot() || !p.IsCollection() {
		return path.Path{}, "", NewExitError(ExitCommandError, fmt.Sprintf("invalid collection %q: expected an odd number of segments", arg))
	}
	return p.Parent(), p.Last(), nil
}

// NewCollectionCommand creates the collection command.
func NewCollectionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "collection <collection-path>",
		Short: "List the documents directly in a collection",
		Long: `List the documents directly inside a collection, in storage order.
Documents in nested subcollections are not included.

Examples:
  firedoc collection /users
  firedoc collection /users/1/posts --properties`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollection(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runCollection(opts *ListOptions, arg string, cmd *cobra.Command) error {
	f, err := opts.formatter(cmd)
	if err != nil {
		return err
	}
	parent, id, err := parseCollectionPath(arg)
	if err != nil {
		return err
	}

	s, closer, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closer.Close()

	docs, err := s.Collection(cmd.Context(), parent, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "read failed", err)
	}
	out, err := listOutput(docs, opts.Properties)
	if err != nil {
		return err
	}
	return f.Success(out)
}

// NewGroupCommand creates the group command.
func NewGroupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "group <collection-id>",
		Short: "List every document in collections with an ID",
		Long: `List the collection group for an ID: every document whose immediate
collection has that ID, at any depth.

Example:
  firedoc group posts`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGroup(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runGroup(opts *ListOptions, id string, cmd *cobra.Command) error {
	f, err := opts.formatter(cmd)
	if err != nil {
		return err
	}
	if id == "" || strings.Contains(id, path.Separator) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid collection id %q", id))
	}

	s, closer, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closer.Close()

	docs, err := s.CollectionGroup(cmd.Context(), id)
	if err != nil {
		return WrapExitError(ExitCommandError, "read failed", err)
	}
	out, err := listOutput(docs, opts.Properties)
	if err != nil {
		return err
	}
	return f.Success(out)
}

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	ListOptions
	Group   string
	Where   []string
	OrderBy []string
	Limit   int
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{ListOptions: ListOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "query [collection-path]",
		Short: "Filter, order and limit a collection or group",
		Long: `Run a query over a collection or, with --group, a collection group.

Each --where is "<field> <op> <value>", where op is one of
< <= > >= == != in array-contains array-contains-any and value uses the
textual value encoding. Filters are combined with AND; documents missing a
filtered field never match.

Each --order-by is a field, optionally suffixed with :desc.

Examples:
  firedoc query /cities --where 'state == {"type":"STRING","value":"CA"}'
  firedoc query --group landmarks --order-by name --limit 10
  firedoc query /cities --where 'population > {"type":"NUMBER","value":1000000}' --order-by population:desc`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args, cmd)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Group, "group", "", "query the collection group with this ID")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, `filter "<field> <op> <value>" (repeatable)`)
	cmd.Flags().StringArrayVar(&opts.OrderBy, "order-by", nil, "order field, optionally field:desc (repeatable)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of results (0 = all)")

	return cmd
}

func runQuery(opts *QueryOptions, args []string, cmd *cobra.Command) error {
	f, err := opts.formatter(cmd)
	if err != nil {
		return err
	}

	q, err := buildQuery(opts, args)
	if err != nil {
		return err
	}

	s, closer, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closer.Close()

	docs, err := s.Query(cmd.Context(), q)
	if errors.Is(err, query.ErrInvalidQuery) {
		if outErr := f.Error("INVALID_QUERY", err.Error(), nil); outErr != nil {
			return outErr
		}
		return &ExitError{Code: ExitCommandError}
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "query failed", err)
	}

	out, err := listOutput(docs, opts.Properties)
	if err != nil {
		return err
	}
	return f.Success(out)
}

func buildQuery(opts *QueryOptions, args []string) (query.Query, error) {
	var q query.Query
	switch {
	case opts.Group != "" && len(args) > 0:
		return q, NewExitError(ExitCommandError, "give either a collection path or --group, not both")
	case opts.Group != "":
		q.From = query.GroupSource{ID: opts.Group}
	case len(args) == 1:
		parent, id, err := parseCollectionPath(args[0])
		if err != nil {
			return q, err
		}
		q.From = query.CollectionSource{Parent: parent, ID: id}
	default:
		return q, NewExitError(ExitCommandError, "a collection path or --group is required")
	}

	var preds []query.Predicate
	for _, w := range opts.Where {
		filter, err := parseWhere(w)
		if err != nil {
			return q, err
		}
		preds = append(preds, filter)
	}
	if len(preds) > 0 {
		q.Where = query.And{Predicates: preds}
	}

	for _, o := range opts.OrderBy {
		field, dir, _ := strings.Cut(o, ":")
		switch dir {
		case "", "asc":
			q.OrderBy = append(q.OrderBy, query.Order{Field: field})
		case "desc":
			q.OrderBy = append(q.OrderBy, query.Order{Field: field, Descending: true})
		default:
			return q, NewExitError(ExitCommandError, fmt.Sprintf("invalid order %q: direction must be asc or desc", o))
		}
	}

	q.Limit = opts.Limit
	return q, nil
}

// parseWhere splits "<field> <op> <value>" on the first two spaces.
func parseWhere(clause string) (query.Filter, error) {
	fields := strings.SplitN(strings.TrimSpace(clause), " ", 3)
	if len(fields) != 3 {
		return query.Filter{}, NewExitError(ExitCommandError, fmt.Sprintf("invalid --where %q: want \"<field> <op> <value>\"", clause))
	}
	op, err := query.ParseFilterOp(fields[1])
	if err != nil {
		return query.Filter{}, WrapExitError(ExitCommandError, "invalid --where", err)
	}
	v, err := codec.DecodeText([]byte(fields[2]))
	if err != nil {
		return query.Filter{}, WrapExitError(ExitCommandError, "invalid --where value", err)
	}
	return query.Filter{Field: fields[0], Op: op, Value: v}, nil
}
