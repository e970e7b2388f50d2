package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	humanize "github.com/dustin/go-humanize"
	"github.com/gocarina/gocsv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kiteco/perfrnn/golib/logging"
	"github.com/kiteco/perfrnn/music/tags"
)

var (
	selected []string
	charset  string
	verbose  bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump TAG_DIR",
	Short: "print the tag vocabulary built from the tables in TAG_DIR as csv",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dump(afero.NewOsFs(), args[0], cmd.OutOrStdout())
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup TAG_DIR FILE...",
	Short: "print the tag ids of each file",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return lookup(afero.NewOsFs(), args[0], args[1:], cmd.OutOrStdout())
	},
}

func init() {
	for _, cmd := range []*cobra.Command{dumpCmd, lookupCmd} {
		cmd.Flags().StringSliceVar(&selected, "tags", nil, "tags to include, all columns if empty")
		cmd.Flags().StringVar(&charset, "encoding", tags.DefaultEncoding, "charset of the tables, or auto")
		cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log warnings")
	}
}

func build(fs afero.Fs, dir string) (*tags.Vocabulary, error) {
	logger := zap.NewNop()
	if verbose {
		logger = logging.Logger
	}
	return tags.Build(fs, dir, tags.Options{Tags: selected, Encoding: charset, Logger: logger})
}

func dump(fs afero.Fs, dir string, w io.Writer) error {
	v, err := build(fs, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s keys, %s duplicates, cardinalities %v\n",
		humanize.Comma(int64(len(v.Keys()))), humanize.Comma(int64(v.Duplicates())), v.Cardinalities())
	return gocsv.Marshal(v.Entries(), w)
}

func lookup(fs afero.Fs, dir string, keys []string, w io.Writer) error {
	v, err := build(fs, dir)
	if err != nil {
		return err
	}
	for _, key := range keys {
		ids := v.LookupByKey(key)
		values := make([]string, len(ids))
		for i, id := range ids {
			values[i], _ = v.Category(v.Tags()[i], id)
		}
		fmt.Fprintf(w, "%s\t%v\t%s\n", key, ids, strings.Join(values, ","))
	}
	return nil
}

func main() {
	root := &cobra.Command{
		Use: "[sub]",
	}

	root.AddCommand(dumpCmd)
	root.AddCommand(lookupCmd)

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
