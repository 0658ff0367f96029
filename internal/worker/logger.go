package worker

import "tg_exchange/pkg/contextx"

var logger = contextx.LoggerFromContextOrDefault
