package platform

import "pioblink/x/logx"

var log = logx.New("platform")
