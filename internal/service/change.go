package service

// Coins lists the accepted denominations, largest first.
var Coins = []int64{100, 50, 20, 10, 5}

// IsCoin reports whether amount is an accepted coin.
func IsCoin(amount int64) bool {
	for _, c := range Coins {
		if c == amount {
			return true
		}
	}
	return false
}

// CalculateChange breaks balance into coins greedily, largest first. A
// remainder below the smallest coin is dropped.
func CalculateChange(balance int64) []int64 {
	change := []int64{}
	for _, coin := range Coins {
		for balance >= coin {
			change = append(change, coin)
			balance -= coin
		}
	}
	return change
}
