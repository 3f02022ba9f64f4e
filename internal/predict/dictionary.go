package predict

import "moneybot/internal/models"

type dictEntry struct {
	category    string
	subcategory string
}

// builtinExpense maps common words to expense categories.
var builtinExpense = map[string]dictEntry{
	"breakfast":   {"Food", "Breakfast"},
	"lunch":       {"Food", "Lunch"},
	"dinner":      {"Food", "Dinner"},
	"coffee":      {"Food", "Drinks"},
	"tea":         {"Food", "Drinks"},
	"snack":       {"Food", "Snacks"},
	"grocery":     {"Food", "Groceries"},
	"groceries":   {"Food", "Groceries"},
	"restaurant":  {"Food", "Dining"},
	"早餐":          {"Food", "Breakfast"},
	"午餐":          {"Food", "Lunch"},
	"晚餐":          {"Food", "Dinner"},
	"taxi":        {"Transport", "Taxi"},
	"uber":        {"Transport", "Taxi"},
	"cab":         {"Transport", "Taxi"},
	"bus":         {"Transport", "Transit"},
	"metro":       {"Transport", "Transit"},
	"subway":      {"Transport", "Transit"},
	"train":       {"Transport", "Transit"},
	"fuel":        {"Transport", "Fuel"},
	"petrol":      {"Transport", "Fuel"},
	"parking":     {"Transport", "Parking"},
	"打车":          {"Transport", "Taxi"},
	"地铁":          {"Transport", "Transit"},
	"rent":        {"Housing", "Rent"},
	"electricity": {"Housing", "Utilities"},
	"water":       {"Housing", "Utilities"},
	"internet":    {"Housing", "Utilities"},
	"房租":          {"Housing", "Rent"},
	"movie":       {"Entertainment", "Movies"},
	"cinema":      {"Entertainment", "Movies"},
	"concert":     {"Entertainment", "Events"},
	"game":        {"Entertainment", "Games"},
	"netflix":     {"Entertainment", "Subscriptions"},
	"电影":          {"Entertainment", "Movies"},
	"clothes":     {"Shopping", "Clothing"},
	"shoes":       {"Shopping", "Clothing"},
	"amazon":      {"Shopping", "Online"},
	"gift":        {"Shopping", "Gifts"},
	"doctor":      {"Medical", "Consultation"},
	"medicine":    {"Medical", "Pharmacy"},
	"pharmacy":    {"Medical", "Pharmacy"},
	"hospital":    {"Medical", "Hospital"},
	"book":        {"Education", "Books"},
	"books":       {"Education", "Books"},
	"course":      {"Education", "Courses"},
	"tuition":     {"Education", "Tuition"},
}

// builtinIncome maps common words to income categories.
var builtinIncome = map[string]dictEntry{
	"salary":     {"Salary", ""},
	"payroll":    {"Salary", ""},
	"paycheck":   {"Salary", ""},
	"工资":         {"Salary", ""},
	"bonus":      {"Bonus", ""},
	"奖金":         {"Bonus", ""},
	"dividend":   {"Investment", "Dividends"},
	"interest":   {"Investment", "Interest"},
	"stock":      {"Investment", "Trading"},
	"freelance":  {"Freelance", ""},
	"gig":        {"Freelance", ""},
	"consulting": {"Freelance", "Consulting"},
	"gift":       {"Gift", ""},
	"红包":         {"Gift", ""},
}

func dictionaryFor(kind models.EntryKind) map[string]dictEntry {
	if kind == models.EntryIncome {
		return builtinIncome
	}
	return builtinExpense
}
