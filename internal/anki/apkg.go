package anki

import (
	"archive/zip"
	"crypto/sha1"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// fieldSeparator joins the fields of a note in the notes table
const fieldSeparator = "\x1f"

// Deck collects cards and writes them as an Anki package (.apkg)
type Deck struct {
	name    string
	deckID  int64
	modelID int64
	cards   []Card
	now     func() time.Time
}

// NewDeck creates an empty deck. IDs derive from the current time, which
// is how Anki itself assigns them.
func NewDeck(name string) *Deck {
	now := time.Now().UnixMilli()
	return &Deck{
		name:    name,
		deckID:  now,
		modelID: now + 1,
		now:     time.Now,
	}
}

// Add appends cards to the deck
func (d *Deck) Add(cards ...Card) {
	d.cards = append(d.cards, cards...)
}

// Len returns the number of cards
func (d *Deck) Len() int {
	return len(d.cards)
}

// WriteAPKG builds the collection database and media in a temporary
// directory and zips them into outputPath
func (d *Deck) WriteAPKG(outputPath string) error {
	if len(d.cards) == 0 {
		return fmt.Errorf("deck %q has no cards", d.name)
	}

	tempDir, err := os.MkdirTemp("", "linguist_anki_*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	// Media first: the notes reference the media names
	if err := d.writeMedia(tempDir); err != nil {
		return fmt.Errorf("failed to write media: %w", err)
	}

	if err := d.createDatabase(filepath.Join(tempDir, "collection.anki2")); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	if err := createZipPackage(tempDir, outputPath); err != nil {
		return fmt.Errorf("failed to create zip package: %w", err)
	}
	return nil
}

// writeMedia stores each distinct page snapshot under a numeric file name
// and writes the number to name mapping Anki expects in "media"
func (d *Deck) writeMedia(tempDir string) error {
	mapping := make(map[string]string)
	seen := make(map[string]bool)

	for _, card := range d.cards {
		name := card.SnapshotName()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		num := strconv.Itoa(len(mapping))
		if err := os.WriteFile(filepath.Join(tempDir, num), card.Snapshot, 0644); err != nil {
			return err
		}
		mapping[num] = name
	}

	data, err := json.Marshal(mapping)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(tempDir, "media"), data, 0644)
}

func (d *Deck) createDatabase(dbPath string) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, query := range schema {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	if err := d.insertCollection(db); err != nil {
		return fmt.Errorf("failed to insert collection: %w", err)
	}

	if err := d.insertNotesAndCards(db); err != nil {
		return fmt.Errorf("failed to insert notes and cards: %w", err)
	}
	return nil
}

var schema = []string{
	`CREATE TABLE col (
		id integer PRIMARY KEY,
		crt integer NOT NULL,
		mod integer NOT NULL,
		scm integer NOT NULL,
		ver integer NOT NULL,
		dty integer NOT NULL,
		usn integer NOT NULL,
		ls integer NOT NULL,
		conf text NOT NULL,
		models text NOT NULL,
		decks text NOT NULL,
		dconf text NOT NULL,
		tags text NOT NULL
	)`,
	`CREATE TABLE notes (
		id integer PRIMARY KEY,
		guid text NOT NULL,
		mid integer NOT NULL,
		mod integer NOT NULL,
		usn integer NOT NULL,
		tags text NOT NULL,
		flds text NOT NULL,
		sfld text NOT NULL,
		csum integer NOT NULL,
		flags integer NOT NULL,
		data text NOT NULL
	)`,
	`CREATE TABLE cards (
		id integer PRIMARY KEY,
		nid integer NOT NULL,
		did integer NOT NULL,
		ord integer NOT NULL,
		mod integer NOT NULL,
		usn integer NOT NULL,
		type integer NOT NULL,
		queue integer NOT NULL,
		due integer NOT NULL,
		ivl integer NOT NULL,
		factor integer NOT NULL,
		reps integer NOT NULL,
		lapses integer NOT NULL,
		left integer NOT NULL,
		odue integer NOT NULL,
		odid integer NOT NULL,
		flags integer NOT NULL,
		data text NOT NULL
	)`,
	`CREATE TABLE revlog (
		id integer PRIMARY KEY,
		cid integer NOT NULL,
		usn integer NOT NULL,
		ease integer NOT NULL,
		ivl integer NOT NULL,
		lastIvl integer NOT NULL,
		factor integer NOT NULL,
		time integer NOT NULL,
		type integer NOT NULL
	)`,
	`CREATE TABLE graves (
		usn integer NOT NULL,
		oid integer NOT NULL,
		type integer NOT NULL
	)`,
	`CREATE INDEX ix_notes_csum ON notes (csum)`,
	`CREATE INDEX ix_notes_usn ON notes (usn)`,
	`CREATE INDEX ix_cards_usn ON cards (usn)`,
	`CREATE INDEX ix_cards_nid ON cards (nid)`,
	`CREATE INDEX ix_cards_sched ON cards (did, queue, due)`,
	`CREATE INDEX ix_revlog_usn ON revlog (usn)`,
	`CREATE INDEX ix_revlog_cid ON revlog (cid)`,
}

type object = map[string]any

func deckConfig(id int64, name, desc string, mod int64) object {
	return object{
		"id":               id,
		"name":             name,
		"mod":              mod,
		"desc":             desc,
		"collapsed":        false,
		"dyn":              0,
		"conf":             1,
		"usn":              0,
		"newToday":         []int{0, 0},
		"revToday":         []int{0, 0},
		"lrnToday":         []int{0, 0},
		"timeToday":        []int{0, 0},
		"browserCollapsed": false,
		"extendNew":        10,
		"extendRev":        50,
	}
}

func (d *Deck) insertCollection(db *sql.DB) error {
	now := d.now().Unix()

	decks := object{
		"1":                              deckConfig(1, "Default", "", now),
		strconv.FormatInt(d.deckID, 10): deckConfig(d.deckID, d.name, "Sentence pairs collected while reading with linguist", now),
	}
	models := object{
		strconv.FormatInt(d.modelID, 10): d.noteType(now),
	}
	conf := object{
		"nextPos":       1,
		"estTimes":      true,
		"activeDecks":   []int64{1},
		"sortType":      "noteFld",
		"sortBackwards": false,
		"addToCur":      true,
		"curDeck":       1,
		"newSpread":     0,
		"dueCounts":     true,
		"collapseTime":  1200,
		"timeLim":       0,
		"schedVer":      1,
		"curModel":      strconv.FormatInt(d.modelID, 10),
		"dayLearnFirst": false,
	}
	dconf := object{
		"1": object{
			"id":   1,
			"name": "Default",
			"dyn":  0,
			"new": object{
				"delays":        []int{1, 10},
				"ints":          []int{1, 4, 7},
				"initialFactor": 2500,
				"perDay":        20,
				"order":         1,
				"bury":          true,
				"separate":      true,
			},
			"lapse": object{
				"delays":      []int{10},
				"mult":        0,
				"minInt":      1,
				"leechFails":  8,
				"leechAction": 0,
			},
			"rev": object{
				"perDay":   100,
				"ease4":    1.3,
				"fuzz":     0.05,
				"maxIvl":   36500,
				"ivlFct":   1,
				"bury":     true,
				"minSpace": 1,
			},
			"timer":    0,
			"maxTaken": 60,
			"usn":      0,
			"mod":      now,
			"autoplay": false,
			"replayq":  false,
		},
	}

	encoded := make([]string, 0, 4)
	for _, v := range []object{conf, models, decks, dconf} {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		encoded = append(encoded, string(data))
	}

	_, err := db.Exec(`INSERT INTO col VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		1,        // id
		now,      // crt
		now*1000, // mod
		now*1000, // scm
		11,       // ver (schema version)
		0,        // dty
		0,        // usn
		0,        // ls
		encoded[0],
		encoded[1],
		encoded[2],
		encoded[3],
		"{}", // tags
	)
	return err
}

// noteType describes the "Source / Target / Page / Reference" note with a
// forward (read, then recall translation) and a reverse template
func (d *Deck) noteType(mod int64) object {
	field := func(name string, ord, size int) object {
		return object{
			"name":   name,
			"ord":    ord,
			"sticky": false,
			"rtl":    false,
			"font":   "Arial",
			"size":   size,
			"media":  []string{},
		}
	}

	return object{
		"id":    d.modelID,
		"name":  "Linguist Sentence (Basic + Reverse)",
		"type":  0,
		"mod":   mod,
		"usn":   -1,
		"sortf": 0,
		"did":   d.deckID,
		"req":   []any{[]any{0, "all", []int{0}}, []any{1, "all", []int{1}}},
		"vers":  []int{},
		"tags":  []string{},
		"latexPre": `\documentclass[12pt]{article}
\special{papersize=3in,5in}
\usepackage[utf8]{inputenc}
\usepackage{amssymb,amsmath}
\pagestyle{empty}
\setlength{\parindent}{0in}
\begin{document}`,
		"latexPost": `\end{document}`,
		"flds": []object{
			field("Source", 0, 22),
			field("Target", 1, 22),
			field("Page", 2, 16),
			field("Reference", 3, 14),
		},
		"tmpls": []object{
			{
				"name":  "Forward",
				"ord":   0,
				"qfmt":  `<div class="source">{{Source}}</div>`,
				"afmt":  backTemplate("Target"),
				"did":   nil,
				"bqfmt": "",
				"bafmt": "",
			},
			{
				"name":  "Reverse",
				"ord":   1,
				"qfmt":  `<div class="target">{{Target}}</div>`,
				"afmt":  backTemplate("Source"),
				"did":   nil,
				"bqfmt": "",
				"bafmt": "",
			},
		},
		"css": cardCSS,
	}
}

func backTemplate(field string) string {
	return fmt.Sprintf(`{{FrontSide}}

<hr id="answer">

<div class="%s">{{%s}}</div>
{{#Page}}
<div class="page">{{Page}}</div>
{{/Page}}
<div class="reference">{{Reference}}</div>`, strings.ToLower(field), field)
}

const cardCSS = `.card {
  font-family: Arial, sans-serif;
  font-size: 22px;
  text-align: center;
  color: #333;
  background-color: white;
  padding: 20px;
}

.source {
  color: #2c3e50;
  margin: 20px 0;
}

.target {
  color: #c0392b;
  margin: 20px 0;
}

.page img {
  max-width: 100%;
  height: auto;
  box-shadow: 0 2px 8px rgba(0,0,0,0.1);
}

.reference {
  font-size: 14px;
  color: #7f8c8d;
  margin-top: 20px;
  font-style: italic;
}

hr#answer {
  margin: 30px 0;
  border: 0;
  border-top: 1px solid #ecf0f1;
}`

func (d *Deck) insertNotesAndCards(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	noteStmt, err := tx.Prepare(`INSERT INTO notes VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer noteStmt.Close()

	cardStmt, err := tx.Prepare(`INSERT INTO cards VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer cardStmt.Close()

	now := d.now()
	for i, card := range d.cards {
		// Leave room for two cards per note
		noteID := now.UnixMilli() + int64(i*3)

		page := ""
		if name := card.SnapshotName(); name != "" {
			page = fmt.Sprintf(`<img src="%s">`, name)
		}
		fields := strings.Join([]string{
			html.EscapeString(card.Source),
			html.EscapeString(card.Target),
			page,
			html.EscapeString(card.Reference()),
		}, fieldSeparator)

		if _, err := noteStmt.Exec(
			noteID,                // id
			noteGUID(card),        // guid
			d.modelID,             // mid
			now.Unix(),            // mod
			-1,                    // usn
			"linguist",            // tags
			fields,                // flds
			card.Source,           // sfld (sort field)
			checksum(card.Source), // csum
			0,                     // flags
			"",                    // data
		); err != nil {
			return fmt.Errorf("failed to insert note: %w", err)
		}

		// ord 0 is the forward template, ord 1 the reverse one
		for ord := 0; ord < 2; ord++ {
			if _, err := cardStmt.Exec(
				noteID+int64(ord)+1, // id
				noteID,              // nid
				d.deckID,            // did
				ord,                 // ord
				now.Unix(),          // mod
				-1,                  // usn
				0,                   // type (new)
				0,                   // queue (new)
				i*2+ord,             // due (position of new cards)
				// ivl, factor, reps, lapses, left, odue, odid, flags
				0, 0, 0, 0, 0, 0, 0, 0,
				"", // data
			); err != nil {
				return fmt.Errorf("failed to insert card %d of note %d: %w", ord, i, err)
			}
		}
	}

	return tx.Commit()
}

// noteGUID is stable for the same sentence of the same page so that
// re-importing an updated deck updates notes instead of duplicating them
func noteGUID(card Card) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s\x00%d\x00%s", card.Document, card.Page, card.Source)))
	return "lg_" + hex.EncodeToString(sum[:8])
}

// checksum is Anki's duplicate check value: the first 32 bits of the SHA1
// of the sort field
func checksum(field string) int64 {
	sum := sha1.Sum([]byte(field))
	return int64(binary.BigEndian.Uint32(sum[:4]))
}

func createZipPackage(tempDir, outputPath string) error {
	zipFile, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer zipFile.Close()

	archive := zip.NewWriter(zipFile)

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := addToZip(archive, filepath.Join(tempDir, entry.Name()), entry.Name()); err != nil {
			return err
		}
	}

	if err := archive.Close(); err != nil {
		return err
	}
	return zipFile.Close()
}

func addToZip(archive *zip.Writer, path, name string) error {
	writer, err := archive.Create(name)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(writer, file)
	return err
}
