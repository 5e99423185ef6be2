package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ontime/core"
	"github.com/trezcool/ontime/core/directory"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf   *core.Config
	db     *sqlx.DB
	dirSvc *directory.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run database migrations (up, down, status, ...)")
	fmt.Println("  addinstitution -name NAME -website URL -timezone TZ [-deadline \"TITLE=DATE\"]... - add an institution to the directory")
	fmt.Println("  delinstitution -id ID - remove an institution from the directory")
}

type deadlineFlags []string

func (d *deadlineFlags) String() string { return fmt.Sprint(*d) }
func (d *deadlineFlags) Set(v string) error {
	*d = append(*d, v)
	return nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addInstitutionCmd := flag.NewFlagSet("addinstitution", flag.ExitOnError)
	addInstitutionName := addInstitutionCmd.String("name", "", "The institution's name.")
	addInstitutionWebsite := addInstitutionCmd.String("website", "", "The institution's website URL.")
	addInstitutionTimezone := addInstitutionCmd.String("timezone", "", "The institution's IANA timezone, eg. America/New_York.")
	var addInstitutionDeadlines deadlineFlags
	addInstitutionCmd.Var(&addInstitutionDeadlines, "deadline", "An application deadline as \"TITLE=YYYY-MM-DD\". May be repeated.")

	delInstitutionCmd := flag.NewFlagSet("delinstitution", flag.ExitOnError)
	delInstitutionID := delInstitutionCmd.Int("id", 0, "The institution's id.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addinstitution":
		if err := addInstitutionCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addInstitutionName == "" || *addInstitutionWebsite == "" || *addInstitutionTimezone == "" {
			addInstitutionCmd.Usage()
			return errHelp
		}
		return cli.addInstitution(*addInstitutionName, *addInstitutionWebsite, *addInstitutionTimezone, addInstitutionDeadlines)
	case "delinstitution":
		if err := delInstitutionCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *delInstitutionID == 0 {
			delInstitutionCmd.Usage()
			return errHelp
		}
		return cli.dirSvc.Delete(*delInstitutionID)
	default:
		cli.printUsage()
		return errHelp
	}
}
