package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"xcar/internal/client"
	"xcar/internal/domain"
	"xcar/internal/storefront"
)

const usage = `usage: storefront <command> [args]

commands:
  catalog                         list every car
  discover [-category C]          list cars, favorites first
  car <id>                        show one car
  cart show | add <id> | remove <id>
  favorite <id>                   toggle a favorite
  compare show | <id>             show or toggle the compare-list
  budget [-income N]              months of saving per car
  login -email E -password P
  register -first F -last L -email E -phone P -password P
  logout
  whoami
  admin create|update <id>|delete <id> [car flags]
  video show | set <url> | upload <file> | reset
  status`

// CLI runs one storefront command against an App.
type CLI struct {
	App   *client.App
	Out   io.Writer
	Video string
}

// Run dispatches args to a command.
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(c.Out, usage)
		return nil
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "catalog":
		return c.listCars(c.App.Catalog.Cars())
	case "discover":
		return c.discover(rest)
	case "car":
		return c.showCar(rest)
	case "cart":
		return c.cart(rest)
	case "favorite":
		id, err := oneArg("favorite", rest)
		if err != nil {
			return err
		}
		return c.App.State.ToggleFavorite(id)
	case "compare":
		return c.compare(rest)
	case "budget":
		return c.budget(rest)
	case "login":
		return c.login(ctx, rest)
	case "register":
		return c.register(ctx, rest)
	case "logout":
		return c.App.Logout()
	case "whoami":
		return c.whoami()
	case "admin":
		return c.admin(ctx, rest)
	case "video":
		return c.video(ctx, rest)
	case "status":
		return c.status()
	case "help", "-h", "--help":
		fmt.Fprintln(c.Out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func oneArg(cmd string, args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("%s expects exactly one argument", cmd)
	}
	return args[0], nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (c *CLI) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.Out, 0, 0, 2, ' ', 0)
}

func (c *CLI) listCars(cars []domain.Car) error {
	state := c.App.State.Snapshot()
	w := c.table()
	fmt.Fprintln(w, "ID\tBRAND\tNAME\tCATEGORY\tPRICE\t")
	for _, car := range cars {
		marker := ""
		if slices.Contains(state.Favorites, car.ID) {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", car.ID, car.Brand, car.Name, car.Category,
			storefront.FormatPrice(car.Price), marker)
	}
	return w.Flush()
}

func (c *CLI) discover(args []string) error {
	fs := newFlagSet("discover")
	category := fs.String("category", storefront.AllCategories, "category filter")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cars, err := storefront.Discover(c.App.Catalog.Cars(), *category, c.App.State.Snapshot().Favorites)
	if err != nil {
		return err
	}
	return c.listCars(cars)
}

func (c *CLI) showCar(args []string) error {
	id, err := oneArg("car", args)
	if err != nil {
		return err
	}
	car, ok := c.App.Catalog.Get(id)
	if !ok {
		return fmt.Errorf("car %q not found", id)
	}
	w := c.table()
	fmt.Fprintf(w, "Name\t%s %s\n", car.Brand, car.Name)
	fmt.Fprintf(w, "Category\t%s\n", car.Category)
	fmt.Fprintf(w, "Price\t%s\n", storefront.FormatPrice(car.Price))
	fmt.Fprintf(w, "0-100 km/h\t%s\n", car.Acceleration)
	fmt.Fprintf(w, "Power\t%s\n", car.Power)
	fmt.Fprintf(w, "Image\t%s\n", car.ImageURL)
	fmt.Fprintf(w, "Description\t%s\n", car.Description)
	return w.Flush()
}

func (c *CLI) cart(args []string) error {
	if len(args) == 0 || args[0] == "show" {
		summary := storefront.SummarizeCart(c.App.State.Snapshot().Cart, c.App.Catalog.Cars())
		if len(summary.Lines) == 0 {
			fmt.Fprintln(c.Out, "Your cart is empty")
			return nil
		}
		w := c.table()
		fmt.Fprintln(w, "ID\tCAR\tQTY\tSUBTOTAL")
		for _, line := range summary.Lines {
			fmt.Fprintf(w, "%s\t%s %s\t%d\t%s\n", line.Car.ID, line.Car.Brand, line.Car.Name,
				line.Quantity, storefront.FormatPrice(line.Subtotal))
		}
		fmt.Fprintf(w, "\tTOTAL\t%d\t%s\n", summary.Items, storefront.FormatPrice(summary.Total))
		return w.Flush()
	}

	id, err := oneArg("cart "+args[0], args[1:])
	if err != nil {
		return err
	}
	switch args[0] {
	case "add":
		return c.App.AddToCart(id)
	case "remove":
		return c.App.State.RemoveFromCart(id)
	default:
		return fmt.Errorf("unknown cart command %q", args[0])
	}
}

func (c *CLI) compare(args []string) error {
	if len(args) == 0 || args[0] == "show" {
		cars := storefront.Comparison(c.App.Catalog.Cars(), c.App.State.Snapshot().Compare)
		w := c.table()
		fmt.Fprintln(w, "ID\tCAR\tCATEGORY\tPRICE\t0-100\tPOWER")
		for _, car := range cars {
			fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\t%s\n", car.ID, car.Brand, car.Name, car.Category,
				storefront.FormatPrice(car.Price), car.Acceleration, car.Power)
		}
		return w.Flush()
	}
	id, err := oneArg("compare", args)
	if err != nil {
		return err
	}
	return c.App.State.ToggleCompare(id)
}

func (c *CLI) budget(args []string) error {
	fs := newFlagSet("budget")
	income := fs.Float64("income", 50000, "monthly net income in USD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	lines, err := storefront.Budget(c.App.Catalog.Cars(), *income)
	if err != nil {
		return err
	}
	w := c.table()
	fmt.Fprintln(w, "CAR\tPRICE\tTIME TO OWN")
	for _, line := range lines {
		fmt.Fprintf(w, "%s %s\t%s\t%s\n", line.Car.Brand, line.Car.Name,
			storefront.FormatPrice(line.Car.Price), line.Duration)
	}
	return w.Flush()
}

func (c *CLI) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	session, err := c.App.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "Welcome, %s %s\n", session.FirstName, session.LastName)
	return nil
}

func (c *CLI) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	var reg domain.Registration
	fs.StringVar(&reg.FirstName, "first", "", "first name")
	fs.StringVar(&reg.LastName, "last", "", "last name")
	fs.StringVar(&reg.Email, "email", "", "email")
	fs.StringVar(&reg.Phone, "phone", "", "phone")
	fs.StringVar(&reg.Password, "password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	result, err := c.App.Auth.Register(ctx, reg)
	if err != nil {
		return err
	}
	switch {
	case result.IsAdmin:
		fmt.Fprintln(c.Out, "Admin account created. Sign in to continue.")
	default:
		fmt.Fprintln(c.Out, "Membership approved. Sign in to continue.")
	}
	if result.Local {
		fmt.Fprintln(c.Out, "The account is stored on this device only.")
	}
	return nil
}

func (c *CLI) whoami() error {
	session, ok := c.App.Session()
	if !ok {
		fmt.Fprintln(c.Out, "Not signed in")
		return nil
	}
	role := "member"
	if session.IsAdmin {
		role = "admin"
	}
	fmt.Fprintf(c.Out, "%s %s <%s> (%s)\n", session.FirstName, session.LastName, session.Email, role)
	return nil
}

func (c *CLI) admin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("admin expects create, update or delete")
	}
	switch args[0] {
	case "create":
		fs, in := carFlags("admin create")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		car, err := c.App.CreateCar(ctx, *in)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.Out, "Created %s (%s)\n", car.Name, car.ID)
		return nil
	case "update":
		if len(args) < 2 {
			return errors.New("admin update expects a car id")
		}
		id := args[1]
		fs, in := carFlags("admin update")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		car, ok, err := c.App.UpdateCar(ctx, id, patchFromFlags(fs, *in))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("car %q not found", id)
		}
		fmt.Fprintf(c.Out, "Updated %s (%s)\n", car.Name, car.ID)
		return nil
	case "delete":
		id, err := oneArg("admin delete", args[1:])
		if err != nil {
			return err
		}
		ok, err := c.App.DeleteCar(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("car %q not found", id)
		}
		fmt.Fprintf(c.Out, "Deleted %s\n", id)
		return nil
	default:
		return fmt.Errorf("unknown admin command %q", args[0])
	}
}

func carFlags(name string) (*flag.FlagSet, *domain.CarInput) {
	fs := newFlagSet(name)
	in := &domain.CarInput{}
	fs.StringVar(&in.Name, "name", "", "model name")
	fs.StringVar(&in.Brand, "brand", "", "brand")
	fs.StringVar(&in.Acceleration, "acceleration", "", "0-100 km/h time")
	fs.StringVar(&in.Power, "power", "", "power output")
	fs.Float64Var(&in.Price, "price", 0, "price in USD")
	fs.StringVar(&in.Description, "description", "", "description")
	fs.StringVar(&in.ImageURL, "image", "", "image URL")
	fs.Func("category", "Hypercar, Supercar, Hybrid or GT", func(v string) error {
		in.Category = domain.Category(v)
		return nil
	})
	return fs, in
}

// patchFromFlags keeps only the flags that were given.
func patchFromFlags(fs *flag.FlagSet, in domain.CarInput) domain.CarPatch {
	var patch domain.CarPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			patch.Name = &in.Name
		case "brand":
			patch.Brand = &in.Brand
		case "acceleration":
			patch.Acceleration = &in.Acceleration
		case "power":
			patch.Power = &in.Power
		case "price":
			patch.Price = &in.Price
		case "description":
			patch.Description = &in.Description
		case "image":
			patch.ImageURL = &in.ImageURL
		case "category":
			patch.Category = &in.Category
		}
	})
	return patch
}

func (c *CLI) video(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "show" {
		src, origin := c.App.Video.Current(ctx)
		if strings.HasPrefix(src, "data:") {
			src = fmt.Sprintf("embedded video (%d bytes encoded)", len(src))
		}
		fmt.Fprintf(c.Out, "%s [%s]\n", src, origin)
		return nil
	}
	switch args[0] {
	case "set":
		src, err := oneArg("video set", args[1:])
		if err != nil {
			return err
		}
		return c.App.Video.SetSource(ctx, src)
	case "upload":
		path, err := oneArg("video upload", args[1:])
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		size := int64(-1)
		if info, err := f.Stat(); err == nil {
			size = info.Size()
		}
		return c.App.Video.Upload(ctx, f, size, mime.TypeByExtension(filepath.Ext(path)))
	case "reset":
		return c.App.Video.Reset(ctx)
	default:
		return fmt.Errorf("unknown video command %q", args[0])
	}
}

func (c *CLI) status() error {
	mode := "online"
	if c.App.Monitor.Offline() {
		mode = "offline"
	}
	state := c.App.State.Snapshot()
	w := c.table()
	fmt.Fprintf(w, "Mode\t%s\n", mode)
	fmt.Fprintf(w, "Catalog\t%d cars (%s)\n", len(c.App.Catalog.Cars()), c.App.Catalog.Source())
	fmt.Fprintf(w, "Cart\t%d items\n", c.App.State.CartCount())
	fmt.Fprintf(w, "Favorites\t%d\n", len(state.Favorites))
	fmt.Fprintf(w, "Compare\t%d/%d\n", len(state.Compare), domain.CompareLimit)
	if c.Video != "" && !strings.HasPrefix(c.Video, "data:") {
		fmt.Fprintf(w, "Video\t%s\n", c.Video)
	}
	return w.Flush()
}
