package main

import (
	"fmt"
	"strings"

	"github.com/trezcool/ontime/core/directory"
)

// addInstitution creates a directory.Institution. Deadlines are passed as
// "TITLE=YYYY-MM-DD" pairs.
func (cli *commandLine) addInstitution(name, website, timezone string, deadlines []string) error {
	ni := directory.NewInstitution{
		Name:     name,
		Website:  website,
		Timezone: timezone,
	}
	for _, d := range deadlines {
		parts := strings.SplitN(d, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid deadline %q: expected \"TITLE=YYYY-MM-DD\"", d)
		}
		ni.Deadlines = append(ni.Deadlines, directory.NewDeadline{Title: parts[0], Date: parts[1]})
	}

	inst, err := cli.dirSvc.Create(ni)
	if err != nil {
		return err
	}
	logger.Printf("created institution %d (%s)", inst.ID, inst.Slug)
	return nil
}
