package payment

import "strconv"

func parseUserKey(key string) (int64, error) {
	return strconv.ParseInt(key, 10, 64)
}
