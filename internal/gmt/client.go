// Package gmt implements the GetMyTime service client and the timesheet
// reconciliation engine built on top of it.
package gmt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gmtsync/gmt/internal/config"
	"github.com/gmtsync/gmt/internal/model"
	"github.com/gmtsync/gmt/internal/timecalc"
)

const servicePath = "/service.aspx"

// Service object/method pairs.
const (
	objectUserManager      = "getmytime.api.usermanager"
	objectManageManager    = "getmytime.api.managemanager"
	objectTimeEntryManager = "getmytime.api.timeentrymanager"
)

// dateLayoutUS is the MM/DD/YYYY format the service expects for fetch
// requests; timestampLayout is the format it returns entry dates in.
const (
	dateLayoutUS    = "01/02/2006"
	timestampLayout = "01/02/2006 03:04:05 PM"
)

var sixty = decimal.NewFromInt(60)

// Client is an authenticated GetMyTime API client. Every remote call waits
// on the rate limiter first, so consecutive calls are spaced out regardless
// of the caller. Calls are blocking and must not be issued concurrently.
type Client struct {
	baseURL    string
	httpClient *http.Client
	jar        *cookiejar.Jar
	limiter    *rate.Limiter
	logger     *zap.Logger

	userID  string
	lookups *Lookups
}

// NewClient builds an unauthenticated client. Login must be called before
// any other operation.
func NewClient(cfg config.Config, logger *zap.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Jar: jar, Timeout: 30 * time.Second},
		jar:        jar,
		limiter:    rate.NewLimiter(rate.Every(cfg.RequestInterval), 1),
		logger:     logger,
	}, nil
}

// Lookups returns the lookup tables fetched at login.
func (c *Client) Lookups() *Lookups { return c.lookups }

// UserID returns the employee id assigned by the session cookie.
func (c *Client) UserID() string { return c.userID }

// post issues one rate-limited service call and returns the raw JSON body.
// Error payloads of the form {"error": {...}} become *RemoteError; network
// and decode failures become *TransportFailure.
func (c *Client) post(ctx context.Context, object, method string, form url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportFailure{Op: method, Err: err}
	}

	endpoint := fmt.Sprintf("%s%s?object=%s&method=%s",
		c.baseURL, servicePath, url.QueryEscape(object), url.QueryEscape(method))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &TransportFailure{Op: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Debug("service call", zap.String("object", object), zap.String("method", method))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportFailure{Op: method, Err: err}
	}
	defer resp.Body.Close()

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &TransportFailure{Op: method, Err: fmt.Errorf("decoding response: %w", err)}
	}

	if remoteErr := decodeErrorPayload(method, body); remoteErr != nil {
		return nil, remoteErr
	}
	return body, nil
}

// decodeErrorPayload returns a *RemoteError when the body carries an
// "error" key, nil otherwise.
func decodeErrorPayload(op string, body []byte) *RemoteError {
	var probe struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err != nil || len(probe.Error) == 0 {
		return nil
	}

	// The code comes back as either a JSON string or a bare number.
	var detail struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(probe.Error, &detail); err == nil && detail.Message != "" {
		code := ""
		switch v := detail.Code.(type) {
		case string:
			code = v
		case float64:
			code = strconv.FormatFloat(v, 'f', -1, 64)
		}
		return &RemoteError{Op: op, Code: code, Message: detail.Message}
	}
	var msg string
	if err := json.Unmarshal(probe.Error, &msg); err == nil {
		return &RemoteError{Op: op, Message: msg}
	}
	return &RemoteError{Op: op, Message: string(probe.Error)}
}

// Login authenticates the session and fetches the lookup tables. Any
// failure is an *AuthError; nothing may proceed without it.
func (c *Client) Login(ctx context.Context, username, password string) error {
	form := url.Values{
		"username": {username},
		"password": {password},
	}
	if _, err := c.post(ctx, objectUserManager, "login", form); err != nil {
		return &AuthError{Err: err}
	}

	// The session cookie carries the employee id used by later calls.
	base, err := url.Parse(c.baseURL + servicePath)
	if err != nil {
		return &AuthError{Err: err}
	}
	for _, cookie := range c.jar.Cookies(base) {
		if strings.EqualFold(cookie.Name, "userid") {
			c.userID = cookie.Value
		}
	}
	if c.userID == "" {
		return &AuthError{Err: fmt.Errorf("login response did not include a userid cookie")}
	}

	if err := c.fetchLookups(ctx); err != nil {
		return &AuthError{Err: err}
	}
	c.logger.Debug("logged in", zap.String("user_id", c.userID),
		zap.Int("customers", len(c.lookups.customersByID)),
		zap.Int("tasks", len(c.lookups.tasksByID)))
	return nil
}

// customerJobRow and serviceItemRow mirror the lookup table payloads. All
// values come back as strings.
type customerJobRow struct {
	ID     string `json:"intClientJobListID"`
	Name   string `json:"strClientJobName"`
	Status string `json:"blnStatus"`
}

type serviceItemRow struct {
	ID     string `json:"intTaskListID"`
	Name   string `json:"strTaskName"`
	Status string `json:"blnStatus"`
}

// fetchLookups loads the customer and task tables and derives the top-level
// category sets.
func (c *Client) fetchLookups(ctx context.Context) error {
	form := url.Values{
		"lookups": {"[customerjobs],[serviceitems]"},
	}
	body, err := c.post(ctx, objectManageManager, "fetchLookups", form)
	if err != nil {
		return err
	}

	var payload struct {
		CustomerJobs struct {
			Rows []customerJobRow `json:"rows"`
		} `json:"customerjobs"`
		ServiceItems struct {
			Rows []serviceItemRow `json:"rows"`
		} `json:"serviceitems"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return &TransportFailure{Op: "fetchLookups", Err: fmt.Errorf("decoding lookups: %w", err)}
	}

	customers := make([]LookupItem, 0, len(payload.CustomerJobs.Rows))
	for _, row := range payload.CustomerJobs.Rows {
		id, err := strconv.Atoi(row.ID)
		if err != nil {
			return &TransportFailure{Op: "fetchLookups", Err: fmt.Errorf("bad customer id %q: %w", row.ID, err)}
		}
		customers = append(customers, LookupItem{
			ID:     id,
			Name:   unescapeName(row.Name),
			Active: row.Status != "False",
		})
	}
	tasks := make([]LookupItem, 0, len(payload.ServiceItems.Rows))
	for _, row := range payload.ServiceItems.Rows {
		id, err := strconv.Atoi(row.ID)
		if err != nil {
			return &TransportFailure{Op: "fetchLookups", Err: fmt.Errorf("bad task id %q: %w", row.ID, err)}
		}
		tasks = append(tasks, LookupItem{
			ID:     id,
			Name:   unescapeName(row.Name),
			Active: row.Status != "False",
		})
	}

	c.lookups = NewLookups(customers, tasks)
	return nil
}

// unescapeName undoes the HTML ampersand escaping the service applies to
// lookup names.
func unescapeName(s string) string {
	return strings.ReplaceAll(s, "&amp;", "&")
}

// timeEntryRow mirrors one row of a fetchTimeEntries payload.
type timeEntryRow struct {
	ID         string `json:"intTimeEntryID"`
	Minutes    string `json:"intMinutes"`
	CustomerID string `json:"intClientJobListID"`
	TaskID     string `json:"intTaskListID"`
	Date       string `json:"dtmTimeWorkedDate"`
	Billable   string `json:"blnBillable"`
	Approved   string `json:"blnApproved"`
	Comments   string `json:"strComments"`
}

// FetchPage fetches the single page of time entries beginning at start. The
// service returns roughly one week of data per call. A payload without rows
// is an empty page, not an error. Entries come back unsorted.
func (c *Client) FetchPage(ctx context.Context, start time.Time) ([]model.RemoteEntry, error) {
	form := url.Values{
		"employeeid": {c.userID},
		"startdate":  {start.Format(dateLayoutUS)},
	}
	body, err := c.post(ctx, objectTimeEntryManager, "fetchTimeEntries", form)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Rows []timeEntryRow `json:"rows"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &TransportFailure{Op: "fetchTimeEntries", Err: fmt.Errorf("decoding entries: %w", err)}
	}

	entries := make([]model.RemoteEntry, 0, len(payload.Rows))
	for _, row := range payload.Rows {
		entry, err := c.parseEntry(row)
		if err != nil {
			return nil, &TransportFailure{Op: "fetchTimeEntries", Err: err}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// parseEntry converts a raw service row into a RemoteEntry, resolving
// lookup ids to names.
func (c *Client) parseEntry(row timeEntryRow) (model.RemoteEntry, error) {
	id, err := strconv.Atoi(row.ID)
	if err != nil {
		return model.RemoteEntry{}, fmt.Errorf("bad entry id %q: %w", row.ID, err)
	}
	minutes, err := strconv.Atoi(row.Minutes)
	if err != nil {
		return model.RemoteEntry{}, fmt.Errorf("bad minutes %q for entry %d: %w", row.Minutes, id, err)
	}
	date, err := time.Parse(timestampLayout, row.Date)
	if err != nil {
		return model.RemoteEntry{}, fmt.Errorf("bad date %q for entry %d: %w", row.Date, id, err)
	}

	customerID, err := strconv.Atoi(row.CustomerID)
	if err != nil {
		return model.RemoteEntry{}, fmt.Errorf("bad customer id %q for entry %d: %w", row.CustomerID, id, err)
	}
	customer, ok := c.lookups.CustomerName(customerID)
	if !ok {
		return model.RemoteEntry{}, fmt.Errorf("unknown customer id %d for entry %d", customerID, id)
	}
	taskID, err := strconv.Atoi(row.TaskID)
	if err != nil {
		return model.RemoteEntry{}, fmt.Errorf("bad task id %q for entry %d: %w", row.TaskID, id, err)
	}
	task, ok := c.lookups.TaskName(taskID)
	if !ok {
		return model.RemoteEntry{}, fmt.Errorf("unknown task id %d for entry %d", taskID, id)
	}

	return model.RemoteEntry{
		ID:       id,
		Date:     date,
		Week:     timecalc.WeekStart(date),
		Minutes:  minutes,
		Hours:    decimal.NewFromInt(int64(minutes)).Div(sixty),
		Customer: customer,
		Task:     task,
		Comments: strings.ReplaceAll(row.Comments, "\n", " "),
		Billable: row.Billable == "True",
		Approved: row.Approved == "True",
	}, nil
}

// Candidate is a time entry prepared for submission. Candidates are
// validated by the rule pipeline before they reach CreateEntry.
type Candidate struct {
	Date     time.Time
	Customer string
	Activity string
	Comments string
	Minutes  int
	Billable bool
}

// Hours returns the candidate's duration as exact decimal hours.
func (c Candidate) Hours() decimal.Decimal {
	return decimal.NewFromInt(int64(c.Minutes)).Div(sixty)
}

// CreateEntry submits a new time entry. Unknown customer or activity names
// are rejected locally with a *ValidationError before any network call. The
// create response does not reliably carry the new entry's id; callers that
// need it must re-fetch and match.
func (c *Client) CreateEntry(ctx context.Context, cand Candidate) error {
	customerID, ok := c.lookups.CustomerID(cand.Customer)
	if !ok {
		return &ValidationError{
			Reason:  ReasonUnknownCustomer,
			Field:   "customer",
			Message: fmt.Sprintf("invalid customer %q", cand.Customer),
		}
	}
	taskID, ok := c.lookups.TaskID(cand.Activity)
	if !ok {
		return &ValidationError{
			Reason:  ReasonUnknownActivity,
			Field:   "activity",
			Message: fmt.Sprintf("invalid activity %q", cand.Activity),
		}
	}

	startDate := cand.Date.Format(dateLayoutUS)
	form := url.Values{
		"employeeid":    {c.userID},
		"startdate":     {startDate},
		"startdatetime": {startDate},
		"minutes":       {strconv.Itoa(cand.Minutes)},
		"customerid":    {strconv.Itoa(customerID)},
		"taskid":        {strconv.Itoa(taskID)},
		"comments":      {cand.Comments},
		"billable":      {strconv.FormatBool(cand.Billable)},
		"projectid":     {"139"}, // Basic
		"classid":       {"0"},
		"starttimer":    {"false"},
	}

	c.logger.Info("submitting entry",
		zap.String("date", cand.Date.Format("2006-01-02")),
		zap.String("customer", cand.Customer),
		zap.String("activity", cand.Activity),
		zap.String("notes", cand.Comments))

	_, err := c.post(ctx, objectTimeEntryManager, "createTimeEntry", form)
	return err
}

// DeleteEntry removes the remote entry with the given id.
func (c *Client) DeleteEntry(ctx context.Context, id int) error {
	c.logger.Info("deleting entry", zap.Int("id", id))
	form := url.Values{
		"timeentryid": {strconv.Itoa(id)},
	}
	_, err := c.post(ctx, objectTimeEntryManager, "deleteTimeEntry", form)
	return err
}
