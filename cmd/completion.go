package cmd

import (
	"flag"

	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/lmazzei55/tradelog/docs"
)

// flagPredictors completes flag values that have a closed set of choices.
var flagPredictors = map[string]complete.Predictor{
	"action": predict.Set{
		"buy", "sell", "dividend", "split", "transfer-in", "transfer-out",
		"sell-to-open", "buy-to-open", "buy-to-close", "sell-to-close",
	},
	"type":   predict.Set{"call", "put", "closed", "expired", "assigned", "exercised"},
	"status": predict.Set{"open", "closed", "expired", "assigned", "exercised"},
	"f":      predict.Files("*.json"),
}

// Completion returns the shell completion tree of the command line, built
// from the registered subcommands and their flags.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub: map[string]*complete.Command{},
		Flags: map[string]complete.Predictor{
			"config": predict.Files("*.toml"),
			"v":      predict.Nothing,
			"raw":    predict.Nothing,
		},
	}
	for _, e := range commands() {
		fs := flag.NewFlagSet(e.cmd.Name(), flag.ContinueOnError)
		e.cmd.SetFlags(fs)
		sub := &complete.Command{Flags: map[string]complete.Predictor{}}
		fs.VisitAll(func(f *flag.Flag) {
			p, ok := flagPredictors[f.Name]
			if !ok {
				p = predict.Something
			}
			sub.Flags[f.Name] = p
		})
		if e.cmd.Name() == "topic" {
			topics, _ := docs.Topics()
			sub.Args = predict.Set(topics)
		}
		root.Sub[e.cmd.Name()] = sub
	}
	return root
}
