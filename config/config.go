// Package config carries the solver's tunable constants instead of
// hardcoding them, following the teacher's own flat config.Config plus
// Load([]string) error shape.
package config

import "flag"

// Config holds every flag the solver binary accepts. Field names mirror
// spec.md section 3's transposition table parameters (K, V, L) and the
// search constants referenced throughout section 4.
type Config struct {
	KeyBits         uint
	ValueBits       uint
	LogSize         uint
	DrawCutoffPly   int
	OpeningBookPath string
	Weak            bool
}

// Load parses args (typically os.Args[1:]) into c, applying spec.md's
// defaults (K=49, V=7, L=23) for anything not passed.
func (c *Config) Load(args []string) error {
	fs := flag.NewFlagSet("connectfour", flag.ContinueOnError)
	fs.UintVar(&c.KeyBits, "key-bits", 49, "transposition table key width in bits")
	fs.UintVar(&c.ValueBits, "value-bits", 7, "transposition table value width in bits")
	fs.UintVar(&c.LogSize, "log-size", 23, "log2 of the transposition table bucket count")
	fs.IntVar(&c.DrawCutoffPly, "draw-cutoff-ply", 40, "ply count beyond which no further win is possible")
	fs.StringVar(&c.OpeningBookPath, "opening-book", "", "path to a binary opening book file (optional)")
	fs.BoolVar(&c.Weak, "weak", false, "solve for the win/draw/loss sign only, not the exact score")
	return fs.Parse(args)
}
