package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/spf13/cobra"

	"github.com/gmtsync/gmt/internal/gmt"
	"github.com/gmtsync/gmt/internal/model"
	"github.com/gmtsync/gmt/internal/timecalc"
	"github.com/gmtsync/gmt/internal/timesheet"
)

var (
	lsToday    bool
	lsComments bool
	lsOneline  bool
	lsTmpl     string
	lsTotal    bool
	lsGroupBy  string
)

var lsCmd = &cobra.Command{
	Use:   "ls [startdate [enddate]]",
	Short: "List time entries",
	Long: `ls lists remote entries for [startdate, enddate). Dates use YYYY-MM-DD;
startdate defaults to six days ago (so today's entries show up), enddate to
startdate + 7 days.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runLs,
}

func init() {
	lsCmd.Flags().BoolVar(&lsToday, "today", false, "Show results for today only (overrides the date arguments)")
	lsCmd.Flags().BoolVar(&lsComments, "comments", false, "Show comments (only relevant for --oneline)")
	lsCmd.Flags().BoolVar(&lsOneline, "oneline", false, "Output a single line per time entry")
	lsCmd.Flags().StringVar(&lsTmpl, "tmpl", "", "Custom Go template per time entry")
	lsCmd.Flags().BoolVar(&lsTotal, "total", false, "Show totals instead of individual entries")
	lsCmd.Flags().StringVar(&lsGroupBy, "group-by", "", "Group totals by entry_date, entry_week, or customer (comma-separated)")
}

// lsDateRange resolves the listing window from flags and arguments.
func lsDateRange(args []string, now time.Time) (time.Time, time.Time, error) {
	if lsToday {
		start := timecalc.StartOfDay(now)
		return start, start.AddDate(0, 0, 1), nil
	}

	var start time.Time
	if len(args) >= 1 {
		var err error
		start, err = time.Parse(timesheet.DateLayout, args[0])
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("unable to parse date %q (want YYYY-MM-DD)", args[0])
		}
	} else {
		// Subtract 6 days so today's entries appear by default.
		start = timecalc.StartOfDay(now).AddDate(0, 0, -6)
	}

	var end time.Time
	if len(args) == 2 {
		var err error
		end, err = time.Parse(timesheet.DateLayout, args[1])
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("unable to parse date %q (want YYYY-MM-DD)", args[1])
		}
	} else {
		end = start.AddDate(0, 0, 7)
	}
	return start, end, nil
}

func runLs(cmd *cobra.Command, args []string) error {
	start, end, err := lsDateRange(args, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()
	client := login(ctx)
	cur := gmt.FetchEntries(ctx, client, start, end)

	if lsTotal {
		entries, err := cur.Collect()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		if err := printTotals(entries, lsGroupBy); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return nil
	}

	var tmpl *template.Template
	if lsTmpl != "" {
		tmpl, err = template.New("entry").Parse(lsTmpl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid template: %v\n", err)
			os.Exit(1)
		}
	}

	for cur.Next() {
		printEntry(cur.Entry(), tmpl)
	}
	if err := cur.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return nil
}

// entryView is the per-entry data exposed to list formats and custom
// templates.
type entryView struct {
	ID          int
	Date        string
	Week        string
	Customer    string
	Task        string
	Comments    string
	Minutes     int
	Hours       string
	HoursStr    string
	MinutesStr  string
	Billable    string
	Approved    string
	BillableSym string
	ApprovedSym string
}

func makeView(e model.RemoteEntry) entryView {
	hoursStr, minutesStr := timecalc.FormatMinutes(e.Minutes)
	v := entryView{
		ID:         e.ID,
		Date:       e.Date.Format(timesheet.DateLayout),
		Week:       e.Week.Format(timesheet.DateLayout),
		Customer:   e.Customer,
		Task:       e.Task,
		Comments:   e.Comments,
		Minutes:    e.Minutes,
		Hours:      e.Hours.String(),
		HoursStr:   hoursStr,
		MinutesStr: minutesStr,
		Billable:   "No ",
		Approved:   "No ",
	}
	if e.Billable {
		v.Billable = "Yes"
		v.BillableSym = "$"
	}
	if e.Approved {
		v.Approved = "Yes"
		v.ApprovedSym = "*"
	}
	return v
}

func printEntry(e model.RemoteEntry, tmpl *template.Template) {
	v := makeView(e)

	if tmpl != nil {
		if err := tmpl.Execute(os.Stdout, v); err != nil {
			fmt.Fprintf(os.Stderr, "invalid template: %v\n", err)
			os.Exit(1)
		}
		fmt.Println()
		return
	}

	if lsOneline {
		line := fmt.Sprintf("%d %s %1s%1s %3s%3s %s > %s",
			v.ID, v.Date, v.ApprovedSym, v.BillableSym, v.HoursStr, v.MinutesStr, v.Customer, v.Task)
		if lsComments {
			line += "; Notes: " + v.Comments
		}
		fmt.Println(line)
		return
	}

	fmt.Printf("ID: %d\nDate: %s\nBillable: %s\nApproved: %s\nCustomer: %s\nTask: %s\nDuration: %s%s\nNotes: %s\n\n",
		v.ID, v.Date, v.Billable, v.Approved, v.Customer, v.Task, v.HoursStr, v.MinutesStr, v.Comments)
}

// printTotals aggregates minutes over the given group-by fields (default
// entry_date) and prints one line per group plus a grand total.
func printTotals(entries []model.RemoteEntry, groupBy string) error {
	fields := []string{"entry_date"}
	if groupBy != "" {
		fields = strings.Split(groupBy, ",")
	}
	for _, f := range fields {
		switch f {
		case "entry_date", "entry_week", "customer":
		default:
			return fmt.Errorf("unknown group-by field %q (want entry_date, entry_week, or customer)", f)
		}
	}

	key := func(e model.RemoteEntry) string {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			switch f {
			case "entry_date":
				parts = append(parts, e.Date.Format(timesheet.DateLayout))
			case "entry_week":
				parts = append(parts, e.Week.Format(timesheet.DateLayout))
			case "customer":
				parts = append(parts, e.Customer)
			}
		}
		return strings.Join(parts, "\x00")
	}

	customerWidth := 0
	for _, e := range entries {
		if len(e.Customer) > customerWidth {
			customerWidth = len(e.Customer)
		}
	}

	sorted := make([]model.RemoteEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return key(sorted[i]) < key(sorted[j]) })

	grandTotal := 0
	for i := 0; i < len(sorted); {
		j := i
		total := 0
		for j < len(sorted) && key(sorted[j]) == key(sorted[i]) {
			total += sorted[j].Minutes
			j++
		}
		grandTotal += total

		cols := make([]string, 0, len(fields)+1)
		for _, f := range fields {
			switch f {
			case "entry_date":
				cols = append(cols, sorted[i].Date.Format(timesheet.DateLayout))
			case "entry_week":
				cols = append(cols, sorted[i].Week.Format(timesheet.DateLayout))
			case "customer":
				cols = append(cols, fmt.Sprintf("%-*s", customerWidth, sorted[i].Customer))
			}
		}
		h, m := timecalc.FormatMinutes(total)
		fmt.Printf("%s %3s%3s\n", strings.Join(cols, " "), h, m)
		i = j
	}

	h, m := timecalc.FormatMinutes(grandTotal)
	fmt.Printf("%s%3s\n", h, m)
	return nil
}
