package shell

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/VictoriaMetrics/metrics"
	"github.com/mongomock/mongomock/cmd/util"
	"github.com/mongomock/mongomock/lib/client"
	"github.com/mongomock/mongomock/lib/codec"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/bson"
)

var (

	// ShellCmd represents the interactive shell command
	ShellCmd = &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive shell against an in-memory server",
		Long: `Start an interactive shell against a fresh in-memory server.
Documents are entered as extended JSON. Type "help" inside the shell
for the list of commands.`,
		RunE: runShell,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Flags
	key := "uri"
	ShellCmd.Flags().String(key, "mongodb://localhost:27017", util.WrapString("connection URI of the in-memory server"))
	key = "db"
	ShellCmd.Flags().String(key, "test", util.WrapString("database to start in"))
}

// session holds the state of one interactive shell run.
type session struct {
	client *client.Client
	db     *client.Database
	codec  codec.IDocumentCodec
}

func runShell(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	printCodec, err := util.GetCodec()
	if err != nil {
		return err
	}

	conn := client.NewConnector(client.OnNewCreate)
	cl, err := conn.Connect(context.Background(), viper.GetString("uri"))
	if err != nil {
		return err
	}

	sess := &session{
		client: cl,
		db:     cl.Database(viper.GetString("db")),
		codec:  printCodec,
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Printf("mongomock shell, connected to %s (db: %s)\n", cl.Address(), sess.db.Name())
	fmt.Println(`type "help" for commands, "exit" to leave`)

	for {
		input, err := line.Prompt(sess.db.Name() + "> ")
		if err != nil {
			// liner returns an error on EOF and on aborted input
			fmt.Println()
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if input == "exit" || input == "quit" {
			return nil
		}
		if err := sess.dispatch(input); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

// dispatch executes one shell command line.
func (s *session) dispatch(input string) error {
	verb, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)
	ctx := context.Background()

	switch verb {
	case "help":
		s.printHelp()
		return nil

	case "use":
		if rest == "" {
			return fmt.Errorf("usage: use <database>")
		}
		s.db = s.client.Database(rest)
		return nil

	case "dbs":
		names, err := s.client.ListDatabaseNames(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil

	case "collections":
		names, err := s.db.ListCollectionNames(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil

	case "insert":
		coll, arg, err := splitCollArg(rest, true)
		if err != nil {
			return err
		}
		doc, err := parseDoc(arg)
		if err != nil {
			return err
		}
		res, err := s.db.Collection(coll).InsertOne(ctx, doc)
		if err != nil {
			return err
		}
		fmt.Printf("inserted _id=%v\n", res.InsertedID)
		return nil

	case "find":
		coll, arg, err := splitCollArg(rest, false)
		if err != nil {
			return err
		}
		filter, err := parseDocOrEmpty(arg)
		if err != nil {
			return err
		}
		cursor, err := s.db.Collection(coll).Find(ctx, filter)
		if err != nil {
			return err
		}
		var docs []bson.D
		if err := cursor.All(ctx, &docs); err != nil {
			return err
		}
		for _, doc := range docs {
			if err := s.printDoc(doc); err != nil {
				return err
			}
		}
		fmt.Printf("(%d documents)\n", len(docs))
		return nil

	case "count":
		coll, arg, err := splitCollArg(rest, false)
		if err != nil {
			return err
		}
		filter, err := parseDocOrEmpty(arg)
		if err != nil {
			return err
		}
		n, err := s.db.Collection(coll).CountDocuments(ctx, filter)
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil

	case "update":
		coll, arg, err := splitCollArg(rest, true)
		if err != nil {
			return err
		}
		filterJSON, updateJSON, err := splitTwoDocs(arg)
		if err != nil {
			return err
		}
		filter, err := parseDoc(filterJSON)
		if err != nil {
			return err
		}
		update, err := parseDoc(updateJSON)
		if err != nil {
			return err
		}
		res, err := s.db.Collection(coll).UpdateMany(ctx, filter, update)
		if err != nil {
			return err
		}
		fmt.Printf("matched=%d modified=%d\n", res.MatchedCount, res.ModifiedCount)
		return nil

	case "delete":
		coll, arg, err := splitCollArg(rest, true)
		if err != nil {
			return err
		}
		filter, err := parseDoc(arg)
		if err != nil {
			return err
		}
		res, err := s.db.Collection(coll).DeleteMany(ctx, filter)
		if err != nil {
			return err
		}
		fmt.Printf("deleted=%d\n", res.DeletedCount)
		return nil

	case "agg":
		coll, arg, err := splitCollArg(rest, true)
		if err != nil {
			return err
		}
		pipeline, err := parseArray(arg)
		if err != nil {
			return err
		}
		cursor, err := s.db.Collection(coll).Aggregate(ctx, pipeline)
		if err != nil {
			return err
		}
		var docs []bson.D
		if err := cursor.All(ctx, &docs); err != nil {
			return err
		}
		for _, doc := range docs {
			if err := s.printDoc(doc); err != nil {
				return err
			}
		}
		fmt.Printf("(%d documents)\n", len(docs))
		return nil

	case "drop":
		if rest == "" {
			return fmt.Errorf("usage: drop <collection>")
		}
		return s.db.DropCollection(ctx, rest)

	case "stats":
		metrics.WritePrometheus(os.Stdout, false)
		return nil

	default:
		return fmt.Errorf("unknown command %q (try \"help\")", verb)
	}
}

func (s *session) printHelp() {
	fmt.Print(`commands:
  use <db>                          switch database
  dbs                               list databases
  collections                       list collections in the current database
  insert <coll> <doc>               insert one document
  find <coll> [filter]              list matching documents
  count <coll> [filter]             count matching documents
  update <coll> <filter> <update>   update all matching documents
  delete <coll> <filter>            delete all matching documents
  agg <coll> <pipeline>             run an aggregation pipeline (JSON array)
  drop <coll>                       drop a collection
  stats                             print operation counters
  exit                              leave the shell
`)
}

func (s *session) printDoc(doc bson.D) error {
	data, err := s.codec.Encode(doc)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// ---------------------------------------------------------------------------
// Input parsing
// ---------------------------------------------------------------------------

// splitCollArg splits "coll {json...}" into the collection name and the rest.
func splitCollArg(input string, argRequired bool) (string, string, error) {
	coll, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)
	if coll == "" {
		return "", "", fmt.Errorf("missing collection name")
	}
	if argRequired && rest == "" {
		return "", "", fmt.Errorf("missing argument after collection name")
	}
	return coll, rest, nil
}

// splitTwoDocs splits two concatenated JSON documents on the boundary
// between a closing and an opening brace.
func splitTwoDocs(input string) (string, string, error) {
	depth := 0
	for i, r := range input {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return input[:i+1], strings.TrimSpace(input[i+1:]), nil
			}
		}
	}
	return "", "", fmt.Errorf("expected two JSON documents")
}

func parseDoc(input string) (bson.D, error) {
	var doc bson.D
	if err := bson.UnmarshalExtJSON([]byte(input), false, &doc); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	return doc, nil
}

func parseDocOrEmpty(input string) (bson.D, error) {
	if input == "" {
		return bson.D{}, nil
	}
	return parseDoc(input)
}

// parseArray parses a JSON array by wrapping it in a document, since the
// ext-JSON unmarshaler only accepts documents at the top level.
func parseArray(input string) (bson.A, error) {
	var wrapper struct {
		P bson.A `bson:"p"`
	}
	wrapped := fmt.Sprintf(`{"p": %s}`, input)
	if err := bson.UnmarshalExtJSON([]byte(wrapped), false, &wrapper); err != nil {
		return nil, fmt.Errorf("invalid pipeline: %w", err)
	}
	return wrapper.P, nil
}
