package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/mail"
	"os"
	"sort"
	"time"

	"github.com/trezcool/ontime/core"
	"github.com/trezcool/ontime/core/deadline"
	"github.com/trezcool/ontime/core/directory"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf   *core.Config
	store  *deadline.Store
	svc    *deadline.Service
	client *directory.Client
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  search [-q QUERY] - search the institution directory (interactive without -q)")
	fmt.Println("  track -institution ID [-deadline DEADLINE_ID] - track an institution's deadlines")
	fmt.Println("  untrack -deadline DEADLINE_ID - stop tracking a deadline")
	fmt.Println("  list - list tracked deadlines")
	fmt.Println("  remind -email EMAIL -deadline DEADLINE_ID [-days N] [-disable] - configure a reminder")
	fmt.Println("  check -email EMAIL - send reminders due today")
	fmt.Println("  unsubscribe -email EMAIL [-deadline DEADLINE_ID] [-all] - disable reminders")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	searchCmd := flag.NewFlagSet("search", flag.ExitOnError)
	searchQuery := searchCmd.String("q", "", "The search query. Omit for interactive mode.")

	trackCmd := flag.NewFlagSet("track", flag.ExitOnError)
	trackInstitution := trackCmd.Int("institution", 0, "The institution's id.")
	trackDeadline := trackCmd.String("deadline", "", "A single deadline id to track. All of the institution's deadlines when omitted.")

	untrackCmd := flag.NewFlagSet("untrack", flag.ExitOnError)
	untrackDeadline := untrackCmd.String("deadline", "", "The tracked deadline's id.")

	remindCmd := flag.NewFlagSet("remind", flag.ExitOnError)
	remindEmail := remindCmd.String("email", "", "The address reminders are sent to.")
	remindDeadline := remindCmd.String("deadline", "", "The tracked deadline's id.")
	remindDays := remindCmd.Int("days", deadline.DefaultReminderDaysBefore, "How many days before the deadline to send the reminder.")
	remindDisable := remindCmd.Bool("disable", false, "Disable the reminder instead.")

	checkCmd := flag.NewFlagSet("check", flag.ExitOnError)
	checkEmail := checkCmd.String("email", "", "The address reminders are sent to.")

	unsubCmd := flag.NewFlagSet("unsubscribe", flag.ExitOnError)
	unsubEmail := unsubCmd.String("email", "", "The address the confirmation is sent to.")
	unsubDeadline := unsubCmd.String("deadline", "", "The tracked deadline's id.")
	unsubAll := unsubCmd.Bool("all", false, "Disable all reminders.")

	switch args[1] {
	case "search":
		if err := searchCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *searchQuery == "" {
			return cli.searchInteractive()
		}
		return cli.search(*searchQuery)
	case "track":
		if err := trackCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *trackInstitution == 0 {
			trackCmd.Usage()
			return errHelp
		}
		return cli.track(*trackInstitution, *trackDeadline)
	case "untrack":
		if err := untrackCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *untrackDeadline == "" {
			untrackCmd.Usage()
			return errHelp
		}
		if !cli.store.Remove(*untrackDeadline) {
			return deadline.ErrNotTracked
		}
		fmt.Println("untracked", *untrackDeadline)
		return nil
	case "list":
		return cli.list()
	case "remind":
		if err := remindCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *remindEmail == "" || *remindDeadline == "" {
			remindCmd.Usage()
			return errHelp
		}
		return cli.remind(*remindEmail, *remindDeadline, *remindDays, *remindDisable)
	case "check":
		if err := checkCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *checkEmail == "" {
			checkCmd.Usage()
			return errHelp
		}
		return cli.check(*checkEmail)
	case "unsubscribe":
		if err := unsubCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *unsubEmail == "" || (*unsubDeadline == "" && !*unsubAll) {
			unsubCmd.Usage()
			return errHelp
		}
		return cli.unsubscribe(*unsubEmail, *unsubDeadline, *unsubAll)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) search(query string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cli.conf.Tracker.RequestTimeout)
	defer cancel()

	insts, err := cli.client.Search(ctx, query)
	if err != nil {
		return err
	}
	printInstitutions(insts)
	return nil
}

// searchInteractive reruns the search as the user types, one query per line.
// Queries typed in quick succession are debounced; only the last one hits the
// directory.
func (cli *commandLine) searchInteractive() error {
	deb := directory.NewDebounced(cli.client, cli.conf.Tracker.SearchDebounce)
	defer deb.Close()

	go func() {
		for res := range deb.Results() {
			if res.Err != nil {
				fmt.Println("search failed:", res.Err)
				continue
			}
			fmt.Printf("results for %q:\n", res.Query)
			printInstitutions(res.Institutions)
		}
	}()

	fmt.Println("Type to search; empty line to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		query := scanner.Text()
		if core.CleanString(query) == "" {
			break
		}
		deb.Submit(query)
	}
	deb.Close()
	return scanner.Err()
}

func (cli *commandLine) track(institutionID int, deadlineID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cli.conf.Tracker.RequestTimeout)
	defer cancel()

	insts, err := cli.client.GetByIDs(ctx, institutionID)
	if err != nil {
		return err
	}
	if len(insts) == 0 {
		return fmt.Errorf("institution %d not found", institutionID)
	}
	inst := insts[0]

	tracked := 0
	for _, d := range inst.Deadlines {
		id := d.ID
		if id == "" {
			id = deadline.SynthesizeID(inst.ID, d.Title, d.Date)
		}
		if deadlineID != "" && id != deadlineID {
			continue
		}
		cli.store.Add(deadline.TrackedDeadline{
			DeadlineID:         id,
			Title:              d.Title,
			Date:               d.Date,
			InstitutionID:      inst.ID,
			InstitutionName:    inst.Name,
			InstitutionWebsite: inst.Website,
		})
		fmt.Printf("tracking %s (%s, due %s)\n", id, d.Title, d.Date)
		tracked++
	}
	if tracked == 0 {
		return fmt.Errorf("no matching deadline on institution %d", institutionID)
	}
	return nil
}

func (cli *commandLine) list() error {
	deadlines := cli.store.List()
	sort.Slice(deadlines, func(i, j int) bool { return deadlines[i].Date < deadlines[j].Date })

	now := time.Now()
	for _, d := range deadlines {
		status := "unknown date"
		if due, err := d.DateValue(); err == nil {
			status = deadline.Classify(deadline.DaysUntil(due, now)).String()
		}
		reminder := "reminder off"
		if d.ReminderEnabled {
			reminder = fmt.Sprintf("reminder %dd before", d.ReminderDaysBefore)
		}
		fmt.Printf("%-40s %s  %s at %s  [%s, %s]\n", d.DeadlineID, d.Date, d.Title, d.InstitutionName, status, reminder)
	}
	fmt.Printf("%d tracked deadline(s)\n", len(deadlines))
	return nil
}

func (cli *commandLine) remind(email, deadlineID string, days int, disable bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), cli.conf.Tracker.RequestTimeout)
	defer cancel()

	outcome, err := cli.svc.SaveReminder(ctx, mail.Address{Address: email}, deadline.ReminderConfig{
		DeadlineID: deadlineID,
		Enabled:    !disable,
		DaysBefore: days,
	})
	if err != nil {
		return err
	}
	fmt.Println("reminder save", outcome)
	return nil
}

func (cli *commandLine) check(email string) error {
	res := cli.svc.CheckDue(context.Background(), mail.Address{Address: email})
	fmt.Printf("checked %d, due %d, sent %d, failed %d\n", res.TotalChecked, res.RemindersDue, res.Sent, res.Failed)
	return nil
}

func (cli *commandLine) unsubscribe(email, deadlineID string, all bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), cli.conf.Tracker.RequestTimeout)
	defer cancel()

	outcome, err := cli.svc.Unsubscribe(ctx, mail.Address{Address: email}, deadlineID, all)
	if err != nil {
		return err
	}
	fmt.Println("unsubscribe", outcome)
	return nil
}

func printInstitutions(insts []directory.Institution) {
	for _, inst := range insts {
		fmt.Printf("%4d  %s (%s)\n", inst.ID, inst.Name, inst.Website)
		for _, d := range inst.Deadlines {
			fmt.Printf("        %s  %s (%s)\n", d.Date, d.Title, d.ID)
		}
	}
	if len(insts) == 0 {
		fmt.Println("  no results")
	}
}
