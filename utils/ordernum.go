package utils

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

// GenerateOrderNumber builds a merchant order number: the ORDER prefix, the
// last ten digits of the millisecond timestamp and six random digits. The
// result is handed to the payment gateway as out_trade_no, so it must stay
// unique for the lifetime of the order.
func GenerateOrderNumber() string {
	millis := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if len(millis) > 10 {
		millis = millis[len(millis)-10:]
	}
	return fmt.Sprintf("ORDER%s%06d", millis, rand.Intn(1000000))
}
