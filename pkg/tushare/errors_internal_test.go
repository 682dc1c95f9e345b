package tushare

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = DescribeTable("classifyAPIError",
	func(msg string, want ErrorKind) {
		Expect(classifyAPIError(-1, msg).Kind).To(Equal(want))
	},
	Entry("chinese permission message", "抱歉，您没有接口访问权限", KindPermission),
	Entry("points threshold message", "您的积分不足", KindPermission),
	Entry("english permission message", "permission denied", KindPermission),
	Entry("chinese parameter message", "参数错误", KindInvalidParam),
	Entry("english parameter message", "invalid param value", KindInvalidParam),
	Entry("unknown endpoint message", "接口不存在", KindUnknownAPI),
	Entry("api name error message", "api name error", KindUnknownAPI),
	Entry("per-minute quota message", "抱歉，您每分钟最多访问该接口500次", KindTransient),
	Entry("unrecognized message", "internal server error", KindTransient),
)
