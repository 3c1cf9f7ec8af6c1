package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Yeint-herp/rex/internal/app"
	"github.com/Yeint-herp/rex/internal/complete"
	"github.com/Yeint-herp/rex/internal/config"
	"github.com/Yeint-herp/rex/internal/store"
)

func main() {
	startDir := flag.String("dir", ".", "starting directory")
	configPath := flag.String("config", "", "config file path (default ~/.config/rex/config.json)")
	flag.Parse()

	mgr := config.NewManager()
	var err error
	if *configPath != "" {
		err = mgr.LoadFrom(*configPath)
	} else {
		err = mgr.Load()
	}
	if err != nil {
		log.Printf("config: %v (using defaults)", err)
	}
	if perr := mgr.ParseError(); perr != nil {
		log.Printf("config: %v (using defaults)", perr)
	}
	cfg := mgr.Get()

	pins, err := store.OpenSQLite(cfg.Store.DBPath)
	if err != nil {
		log.Fatalf("pin store: %v", err)
	}
	defer pins.Close()

	browser, err := app.NewBrowser(*startDir, pins, cfg)
	if err != nil {
		log.Fatalf("start: %v", err)
	}
	defer browser.Close()

	repl(browser)
}

func repl(b *app.Browser) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("%s> ", b.Current().Path)
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "quit", "exit":
			return
		case "help":
			usage()
		case "pwd":
			fmt.Println(b.Current().Path)
		case "cd":
			if _, err := b.NavigateTo(arg); err != nil {
				fmt.Println(err)
			}
		case "back":
			if _, err := b.Back(); err != nil {
				fmt.Println(err)
			}
		case "forward", "fwd":
			if _, err := b.Forward(); err != nil {
				fmt.Println(err)
			}
		case "ls":
			listDir(b)
		case "search":
			runSearch(b, arg, false)
		case "fsearch":
			runSearch(b, arg, true)
		case "complete":
			suggest(b, arg)
		case "pins":
			listPins(b)
		case "pin":
			if err := b.Pin(arg, ""); err != nil {
				fmt.Println(err)
			}
		case "unpin":
			if err := b.Unpin(arg); err != nil {
				fmt.Println(err)
			}
		default:
			fmt.Printf("unknown command %q (try help)\n", cmd)
		}
	}
}

func usage() {
	fmt.Println(`commands:
  cd <path>        navigate (supports ~, relative paths)
  back / forward   move through history
  ls               list current directory
  search <query>   recursive substring search from here
  fsearch <query>  recursive fuzzy search from here
  complete <text>  completion candidates for text
  pin <path>       pin a directory
  unpin <path>     remove a pin
  pins             list pins
  pwd / quit`)
}

func listDir(b *app.Browser) {
	entries, err := b.Listing()
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, e := range entries {
		if e.IsDir {
			fmt.Printf("%s/\n", e.Name)
		} else {
			fmt.Printf("%s\t%d\n", e.Name, e.Size)
		}
	}
}

func listPins(b *app.Browser) {
	pins, err := b.Pins()
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, p := range pins {
		if p.Label != "" {
			fmt.Printf("%s\t%s\n", p.Label, p.Path)
		} else {
			fmt.Println(p.Path)
		}
	}
}

func runSearch(b *app.Browser, query string, fuzzy bool) {
	h := b.Search(query, fuzzy)
	for {
		r, ok := h.Next()
		if !ok {
			break
		}
		if fuzzy {
			fmt.Printf("%7.2f  %s\n", r.Score, r.Entry.Path)
		} else {
			fmt.Println(r.Entry.Path)
		}
	}
	s := h.Summary()
	fmt.Printf("%d matches, %d dirs scanned, %d skipped, %d cycles\n",
		s.Matches, s.ScannedDirs, s.SkippedDirs, s.Cycles)
}

func suggest(b *app.Browser, partial string) {
	cands, err := b.Suggest(partial)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, c := range cands {
		src := "dir"
		if c.Source == complete.SourcePin {
			src = "pin"
		}
		fmt.Printf("%7.2f  [%s]  %s -> %s\n", c.Score, src, c.Display, c.Target)
	}
}
