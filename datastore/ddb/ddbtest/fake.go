/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package ddbtest provides an in-memory stand-in for the DynamoDB client used in tests.
//
// It understands the expression shapes produced by the feature/dynamodb/expression
// builder for the operations the datastores issue: key equality and range conditions,
// SET and ADD updates, attribute_exists / attribute_not_exists and >= conditions.
package ddbtest

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Table describes the key schema of a fake table.
type Table struct {
	Name         string
	PartitionKey string
	SortKey      string
	// Indexes maps an index name to its range key attribute. The index shares the
	// table's partition key.
	Indexes map[string]string
}

// BatchHook decides the outcome of the call-th BatchWriteItem call (1-based). It returns
// the requests to report as unprocessed, or an error to fail the call. Requests not
// reported as unprocessed are applied.
type BatchHook func(call int, reqs []types.WriteRequest) ([]types.WriteRequest, error)

// Fake is a concurrency-safe in-memory DynamoDB.
type Fake struct {
	mu         sync.Mutex
	tables     map[string]*table
	batchCalls [][]types.WriteRequest
	batchHook  BatchHook
	errs       map[string]error
	calls      map[string]int
}

type table struct {
	def   Table
	items map[string]map[string]types.AttributeValue
}

// New creates a Fake holding the given tables.
func New(tables ...Table) *Fake {
	f := &Fake{
		tables: make(map[string]*table, len(tables)),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
	for _, t := range tables {
		f.tables[t.Name] = &table{def: t, items: make(map[string]map[string]types.AttributeValue)}
	}
	return f
}

// WithBatchHook installs a hook that scripts BatchWriteItem outcomes.
func (f *Fake) WithBatchHook(h BatchHook) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchHook = h
	return f
}

// WithError makes every call of op ("GetItem", "PutItem", "UpdateItem", "DeleteItem",
// "Query", "BatchWriteItem") fail with err. A nil err clears it.
func (f *Fake) WithError(op string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
	} else {
		f.errs[op] = err
	}
	return f
}

// Calls returns how many times op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// BatchCalls returns the requests sent by each BatchWriteItem call, in arrival order.
func (f *Fake) BatchCalls() [][]types.WriteRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]types.WriteRequest, len(f.batchCalls))
	copy(out, f.batchCalls)
	return out
}

// Seed stores items directly.
func (f *Fake) Seed(tableName string, items ...map[string]types.AttributeValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.tables[tableName]
	for _, item := range items {
		t.items[t.keyString(item)] = cloneItem(item)
	}
}

// Items returns every item of a table ordered by primary key.
func (f *Fake) Items(tableName string) []map[string]types.AttributeValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tables[tableName]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, k := range keys {
		out = append(out, cloneItem(t.items[k]))
	}
	return out
}

func (f *Fake) begin(op, tableName string) (*table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	if err := f.errs[op]; err != nil {
		return nil, err
	}
	t, ok := f.tables[tableName]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found: " + tableName)}
	}
	return t, nil
}

// BatchWriteItem implements the DynamoDB API.
func (f *Fake) BatchWriteItem(_ context.Context, params *sdk.BatchWriteItemInput, _ ...func(*sdk.Options)) (*sdk.BatchWriteItemOutput, error) {
	f.mu.Lock()
	f.calls["BatchWriteItem"]++
	if err := f.errs["BatchWriteItem"]; err != nil {
		f.mu.Unlock()
		return nil, err
	}
	var sent []types.WriteRequest
	for _, reqs := range params.RequestItems {
		sent = append(sent, reqs...)
	}
	f.batchCalls = append(f.batchCalls, sent)
	call := len(f.batchCalls)
	hook := f.batchHook
	f.mu.Unlock()

	var unprocessed []types.WriteRequest
	if hook != nil {
		var err error
		unprocessed, err = hook(call, sent)
		if err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := &sdk.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{}}
	for tableName, reqs := range params.RequestItems {
		t, ok := f.tables[tableName]
		if !ok {
			return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found: " + tableName)}
		}
		skip := make(map[string]bool, len(unprocessed))
		for _, u := range unprocessed {
			skip[t.requestKey(u)] = true
		}
		var left []types.WriteRequest
		for _, r := range reqs {
			k := t.requestKey(r)
			if skip[k] {
				left = append(left, r)
				continue
			}
			switch {
			case r.PutRequest != nil:
				t.items[k] = cloneItem(r.PutRequest.Item)
			case r.DeleteRequest != nil:
				delete(t.items, k)
			}
		}
		if len(left) > 0 {
			out.UnprocessedItems[tableName] = left
		}
	}
	return out, nil
}

// GetItem implements the DynamoDB API.
func (f *Fake) GetItem(_ context.Context, params *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	t, err := f.begin("GetItem", aws.ToString(params.TableName))
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := t.items[t.keyString(params.Key)]
	if !ok {
		return &sdk.GetItemOutput{}, nil
	}
	return &sdk.GetItemOutput{Item: cloneItem(item)}, nil
}

// PutItem implements the DynamoDB API.
func (f *Fake) PutItem(_ context.Context, params *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	t, err := f.begin("PutItem", aws.ToString(params.TableName))
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := t.keyString(params.Item)
	existing := t.items[k]
	if !conditionHolds(aws.ToString(params.ConditionExpression), existing, params.ExpressionAttributeNames, params.ExpressionAttributeValues) {
		return nil, conditionalCheckFailed()
	}
	t.items[k] = cloneItem(params.Item)
	return &sdk.PutItemOutput{}, nil
}

var (
	setPattern = regexp.MustCompile(`(#\w+)\s*=\s*(:\w+)`)
	addPattern = regexp.MustCompile(`ADD\s+((?:#\w+\s+:\w+\s*,?\s*)+)`)
	addPair    = regexp.MustCompile(`(#\w+)\s+(:\w+)`)
)

// UpdateItem implements the DynamoDB API for SET and ADD updates.
func (f *Fake) UpdateItem(_ context.Context, params *sdk.UpdateItemInput, _ ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	t, err := f.begin("UpdateItem", aws.ToString(params.TableName))
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	names, values := params.ExpressionAttributeNames, params.ExpressionAttributeValues
	k := t.keyString(params.Key)
	existing := t.items[k]
	if !conditionHolds(aws.ToString(params.ConditionExpression), existing, names, values) {
		return nil, conditionalCheckFailed()
	}

	item := cloneItem(existing)
	if item == nil {
		item = cloneItem(params.Key)
	}
	updated := make(map[string]types.AttributeValue)
	expr := aws.ToString(params.UpdateExpression)

	for _, m := range addPattern.FindAllStringSubmatch(expr, -1) {
		for _, pair := range addPair.FindAllStringSubmatch(m[1], -1) {
			name, delta := names[pair[1]], values[pair[2]]
			sum := numberOf(item[name]) + numberOf(delta)
			item[name] = &types.AttributeValueMemberN{Value: strconv.FormatInt(sum, 10)}
			updated[name] = item[name]
		}
	}
	for _, m := range setPattern.FindAllStringSubmatch(expr, -1) {
		name := names[m[1]]
		item[name] = values[m[2]]
		updated[name] = values[m[2]]
	}
	t.items[k] = item

	out := &sdk.UpdateItemOutput{}
	switch params.ReturnValues {
	case types.ReturnValueUpdatedNew:
		out.Attributes = cloneItem(updated)
	case types.ReturnValueAllNew:
		out.Attributes = cloneItem(item)
	}
	return out, nil
}

// DeleteItem implements the DynamoDB API.
func (f *Fake) DeleteItem(_ context.Context, params *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	t, err := f.begin("DeleteItem", aws.ToString(params.TableName))
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(t.items, t.keyString(params.Key))
	return &sdk.DeleteItemOutput{}, nil
}

var (
	betweenPattern    = regexp.MustCompile(`(#\w+)\s+BETWEEN\s+(:\w+)\s+AND\s+(:\w+)`)
	comparePattern    = regexp.MustCompile(`(#\w+)\s*(<=|>=|<>|<|>|=)\s*(:\w+)`)
	beginsWithPattern = regexp.MustCompile(`begins_with\s*\(\s*(#\w+)\s*,\s*(:\w+)\s*\)`)
)

type rangeCond struct {
	attr string
	op   string
	lo   types.AttributeValue
	hi   types.AttributeValue
}

// Query implements the DynamoDB API for a partition equality plus an optional range
// condition, with ordering, Limit and ExclusiveStartKey paging.
func (f *Fake) Query(_ context.Context, params *sdk.QueryInput, _ ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	t, err := f.begin("Query", aws.ToString(params.TableName))
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	names, values := params.ExpressionAttributeNames, params.ExpressionAttributeValues
	rangeAttr := t.def.SortKey
	if params.IndexName != nil {
		idx, ok := t.def.Indexes[*params.IndexName]
		if !ok {
			return nil, &types.ResourceNotFoundException{Message: aws.String("index not found: " + *params.IndexName)}
		}
		rangeAttr = idx
	}

	expr := aws.ToString(params.KeyConditionExpression)
	var partition types.AttributeValue
	var conds []rangeCond
	for _, m := range betweenPattern.FindAllStringSubmatch(expr, -1) {
		conds = append(conds, rangeCond{attr: names[m[1]], op: "BETWEEN", lo: values[m[2]], hi: values[m[3]]})
	}
	for _, m := range beginsWithPattern.FindAllStringSubmatch(expr, -1) {
		conds = append(conds, rangeCond{attr: names[m[1]], op: "begins_with", lo: values[m[2]]})
	}
	for _, m := range comparePattern.FindAllStringSubmatch(expr, -1) {
		attr := names[m[1]]
		if attr == t.def.PartitionKey && m[2] == "=" {
			partition = values[m[3]]
			continue
		}
		conds = append(conds, rangeCond{attr: attr, op: m[2], lo: values[m[3]]})
	}
	if partition == nil {
		return nil, fmt.Errorf("ValidationException: query condition missed key schema element: %s", t.def.PartitionKey)
	}

	var matched []map[string]types.AttributeValue
	for _, item := range t.items {
		if compare(item[t.def.PartitionKey], partition) != 0 {
			continue
		}
		if rangeAttr != "" && item[rangeAttr] == nil {
			continue
		}
		ok := true
		for _, c := range conds {
			if !c.holds(item[c.attr]) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, item)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if rangeAttr != "" {
			if c := compare(matched[i][rangeAttr], matched[j][rangeAttr]); c != 0 {
				return c < 0
			}
		}
		return t.keyString(matched[i]) < t.keyString(matched[j])
	})
	if params.ScanIndexForward != nil && !*params.ScanIndexForward {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}

	start := 0
	if len(params.ExclusiveStartKey) > 0 {
		after := t.keyString(params.ExclusiveStartKey)
		for i, item := range matched {
			if t.keyString(item) == after {
				start = i + 1
				break
			}
		}
	}
	matched = matched[start:]

	out := &sdk.QueryOutput{}
	if params.Limit != nil && int(*params.Limit) < len(matched) {
		matched = matched[:*params.Limit]
		last := matched[len(matched)-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{t.def.PartitionKey: last[t.def.PartitionKey]}
		if t.def.SortKey != "" {
			out.LastEvaluatedKey[t.def.SortKey] = last[t.def.SortKey]
		}
		if rangeAttr != "" {
			out.LastEvaluatedKey[rangeAttr] = last[rangeAttr]
		}
	}
	for _, item := range matched {
		out.Items = append(out.Items, cloneItem(item))
	}
	out.Count = int32(len(out.Items))
	return out, nil
}

func (c rangeCond) holds(v types.AttributeValue) bool {
	if v == nil {
		return false
	}
	switch c.op {
	case "=":
		return compare(v, c.lo) == 0
	case "<>":
		return compare(v, c.lo) != 0
	case "<":
		return compare(v, c.lo) < 0
	case "<=":
		return compare(v, c.lo) <= 0
	case ">":
		return compare(v, c.lo) > 0
	case ">=":
		return compare(v, c.lo) >= 0
	case "BETWEEN":
		return compare(v, c.lo) >= 0 && compare(v, c.hi) <= 0
	case "begins_with":
		return strings.HasPrefix(scalar(v), scalar(c.lo))
	}
	return false
}

var (
	existsPattern    = regexp.MustCompile(`attribute_exists\s*\(\s*(#\w+)\s*\)`)
	notExistsPattern = regexp.MustCompile(`attribute_not_exists\s*\(\s*(#\w+)\s*\)`)
)

// conditionHolds evaluates the AND of every recognised clause against item (nil when
// the item does not exist).
func conditionHolds(expr string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) bool {
	if expr == "" {
		return true
	}
	for _, m := range notExistsPattern.FindAllStringSubmatch(expr, -1) {
		if item != nil && item[names[m[1]]] != nil {
			return false
		}
	}
	expr = notExistsPattern.ReplaceAllString(expr, "")
	for _, m := range existsPattern.FindAllStringSubmatch(expr, -1) {
		if item == nil || item[names[m[1]]] == nil {
			return false
		}
	}
	for _, m := range comparePattern.FindAllStringSubmatch(expr, -1) {
		c := rangeCond{attr: names[m[1]], op: m[2], lo: values[m[3]]}
		if item == nil || !c.holds(item[c.attr]) {
			return false
		}
	}
	return true
}

func conditionalCheckFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

func (t *table) keyString(item map[string]types.AttributeValue) string {
	k := scalar(item[t.def.PartitionKey])
	if t.def.SortKey != "" {
		k += "\x00" + scalar(item[t.def.SortKey])
	}
	return k
}

func (t *table) requestKey(r types.WriteRequest) string {
	switch {
	case r.PutRequest != nil:
		return t.keyString(r.PutRequest.Item)
	case r.DeleteRequest != nil:
		return t.keyString(r.DeleteRequest.Key)
	}
	return ""
}

func scalar(v types.AttributeValue) string {
	switch tv := v.(type) {
	case *types.AttributeValueMemberS:
		return tv.Value
	case *types.AttributeValueMemberN:
		return tv.Value
	case *types.AttributeValueMemberBOOL:
		return strconv.FormatBool(tv.Value)
	}
	return ""
}

func numberOf(v types.AttributeValue) int64 {
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	i, _ := strconv.ParseInt(n.Value, 10, 64)
	return i
}

func compare(a, b types.AttributeValue) int {
	an, aNum := a.(*types.AttributeValueMemberN)
	bn, bNum := b.(*types.AttributeValueMemberN)
	if aNum && bNum {
		x, _ := strconv.ParseFloat(an.Value, 64)
		y, _ := strconv.ParseFloat(bn.Value, 64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return strings.Compare(scalar(a), scalar(b))
}

func cloneItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}
