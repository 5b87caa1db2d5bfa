package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/heart-risk/internal/application"
	apppred "github.com/bryanwahyu/heart-risk/internal/application/predictions"
	domain "github.com/bryanwahyu/heart-risk/internal/domain/predictions"
)

var scoreCmd = &cobra.Command{
	Use:   "score [input.json]",
	Short: "Score one patient record without storing it",
	Long:  "Reads a JSON object with the clinical fields from the given file, or stdin when omitted, and prints {prob, top_features}.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return eris.Wrapf(err, "open %s", args[0])
			}
			defer f.Close()
			in = f
		}

		pipeline, err := loadModel(cmd.Context(), cfg)
		if err != nil {
			return eris.Wrap(err, "load model")
		}
		svc := &apppred.Service{Model: pipeline, Clock: application.SystemClock{}}
		return score(cmd.Context(), svc, in, cmd.OutOrStdout())
	},
}

func score(ctx context.Context, svc *apppred.Service, r io.Reader, w io.Writer) error {
	var raw map[string]any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil && !eris.Is(err, io.EOF) {
		return eris.Wrap(err, "decode input")
	}
	if raw != nil {
		if err := dec.Decode(&struct{}{}); !eris.Is(err, io.EOF) {
			return eris.New("decode input: unexpected data after JSON object")
		}
	}
	in, err := domain.ParseInput(raw)
	if err != nil {
		return err
	}
	res, err := svc.Predict(ctx, in)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}
