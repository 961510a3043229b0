package commands

import (
	"encoding/json"
	"io"

	"github.com/Alp4ka/gokeyset"
	"github.com/Alp4ka/gokeyset/fileshare"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type pagingFlags struct {
	first, last   int
	after, before string
}

func (p *pagingFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.first, "first", 0, "number of items after the cursor")
	cmd.Flags().IntVar(&p.last, "last", 0, "number of items before the cursor")
	cmd.Flags().StringVar(&p.after, "after", "", "cursor to read forward from")
	cmd.Flags().StringVar(&p.before, "before", "", "cursor to read backward from")
}

// request leaves sizes unset unless their flags were given, so an explicit
// --first 0 is rejected instead of falling back to the default size.
func (p *pagingFlags) request(cmd *cobra.Command) gokeyset.PagingRequest {
	req := gokeyset.PagingRequest{After: p.after, Before: p.before}
	if cmd.Flags().Changed("first") {
		req.First = lo.ToPtr(p.first)
	}
	if cmd.Flags().Changed("last") {
		req.Last = lo.ToPtr(p.last)
	}
	return req
}

func newFilesCommand(a *app) *cobra.Command {
	var (
		paging     pagingFlags
		sortField  string
		direction  string
		active     bool
		names      []string
		withShares bool
	)

	cmd := &cobra.Command{
		Use:   "files",
		Args:  cobra.NoArgs,
		Short: "List one page of files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sortInput, err := fileshare.ParseFileSort(sortField, direction)
			if err != nil {
				return err
			}

			q := fileshare.FilesQuery{
				Sort:       &sortInput,
				WithShares: withShares,
				Paging:     paging.request(cmd),
			}

			if cmd.Flags().Changed("active") || cmd.Flags().Changed("name") {
				q.Filter = &fileshare.FileFilter{}
				if cmd.Flags().Changed("active") {
					q.Filter.Active = lo.ToPtr(active)
				}
				if cmd.Flags().Changed("name") {
					q.Filter.Names = names
				}
			}

			conn, err := fileshare.Files(cmd.Context(), a.db, q, a.pagingOptions()...)
			return writeResult(cmd.OutOrStdout(), conn, err)
		},
	}

	paging.register(cmd)
	cmd.Flags().StringVar(&sortField, "sort", string(fileshare.DefaultFileSort.Field), "sort field")
	cmd.Flags().StringVar(&direction, "direction", string(fileshare.DefaultFileSort.Direction), "sort direction, asc or desc")
	cmd.Flags().BoolVar(&active, "active", true, "only files with this active state")
	cmd.Flags().StringSliceVar(&names, "name", nil, "only files with these names")
	cmd.Flags().BoolVar(&withShares, "with-shares", false, "attach the shares of every file")

	return cmd
}

func newSharesCommand(a *app) *cobra.Command {
	var (
		paging    pagingFlags
		sortField string
		direction string
		fileIDs   []string
		keys      []string
		withFile  bool
	)

	cmd := &cobra.Command{
		Use:   "shares",
		Args:  cobra.NoArgs,
		Short: "List one page of share links",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sortInput, err := fileshare.ParseShareSort(sortField, direction)
			if err != nil {
				return err
			}

			q := fileshare.SharesQuery{
				Sort:     &sortInput,
				WithFile: withFile,
				Paging:   paging.request(cmd),
			}

			if cmd.Flags().Changed("file") || cmd.Flags().Changed("key") {
				q.Filter = &fileshare.ShareFilter{}
				if cmd.Flags().Changed("file") {
					q.Filter.FileIDs, err = parseUUIDs(fileIDs)
					if err != nil {
						return err
					}
				}
				if cmd.Flags().Changed("key") {
					q.Filter.Keys = keys
				}
			}

			conn, err := fileshare.Shares(cmd.Context(), a.db, q, a.pagingOptions()...)
			return writeResult(cmd.OutOrStdout(), conn, err)
		},
	}

	paging.register(cmd)
	cmd.Flags().StringVar(&sortField, "sort", string(fileshare.DefaultShareSort.Field), "sort field")
	cmd.Flags().StringVar(&direction, "direction", string(fileshare.DefaultShareSort.Direction), "sort direction, asc or desc")
	cmd.Flags().StringSliceVar(&fileIDs, "file", nil, "only shares of these file ids")
	cmd.Flags().StringSliceVar(&keys, "key", nil, "only shares with these keys")
	cmd.Flags().BoolVar(&withFile, "with-file", false, "attach the shared file")

	return cmd
}

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid id %q", v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// writeResult prints a connection, or the code and message of a rejected
// paging request. Rejections still fail the command.
func writeResult(w io.Writer, v any, err error) error {
	if perr, ok := gokeyset.AsPaginationError(err); ok {
		if werr := writeJSON(w, perr); werr != nil {
			return werr
		}
		return err
	}
	if err != nil {
		return err
	}

	return writeJSON(w, v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "cannot write output")
}
